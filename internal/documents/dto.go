package documents

import "time"

type documentResponse struct {
	DocumentID string    `json:"documentId"`
	DocType    string    `json:"docType"`
	Hint       string    `json:"hint,omitempty"`
	FileURL    string    `json:"fileUrl"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toResponse(doc Document) documentResponse {
	return documentResponse{
		DocumentID: doc.ID,
		DocType:    string(doc.DocType),
		Hint:       doc.Hint,
		FileURL:    doc.FileURL,
		CreatedAt:  doc.CreatedAt,
	}
}
