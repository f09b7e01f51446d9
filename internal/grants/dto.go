package grants

import "time"

type createGrantRequest struct {
	DocumentID     string `json:"documentId" binding:"required"`
	RecipientEmail string `json:"recipientEmail" binding:"required"`
	Permission     string `json:"permission" binding:"required"`
	OneTime        *bool  `json:"oneTime"`
}

type grantResponse struct {
	GrantID        string     `json:"grantId"`
	DocumentID     string     `json:"documentId"`
	RecipientEmail string     `json:"recipientEmail"`
	Permission     string     `json:"permission"`
	OneTime        bool       `json:"oneTime"`
	ShareURL       string     `json:"shareUrl"`
	Consumed       bool       `json:"consumed"`
	ConsumedAt     *time.Time `json:"consumedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	ExpiresAt      time.Time  `json:"expiresAt"`
}

type accessResponse struct {
	DocumentID string    `json:"documentId"`
	DocType    string    `json:"docType"`
	Hint       string    `json:"hint,omitempty"`
	FileURL    string    `json:"fileUrl"`
	Permission string    `json:"permission"`
	OneTime    bool      `json:"oneTime"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

func toResponse(grant ShareGrant, shareURL string) grantResponse {
	return grantResponse{
		GrantID:        grant.ID,
		DocumentID:     grant.DocumentID,
		RecipientEmail: grant.RecipientEmail,
		Permission:     string(grant.Permission),
		OneTime:        grant.OneTime,
		ShareURL:       shareURL,
		Consumed:       grant.Consumed,
		ConsumedAt:     grant.ConsumedAt,
		CreatedAt:      grant.CreatedAt,
		ExpiresAt:      grant.ExpiresAt,
	}
}

func toAccessResponse(access Access) accessResponse {
	return accessResponse{
		DocumentID: access.DocumentID,
		DocType:    access.DocType,
		Hint:       access.Hint,
		FileURL:    access.FileURL,
		Permission: string(access.Permission),
		OneTime:    access.OneTime,
		ExpiresAt:  access.ExpiresAt,
	}
}
