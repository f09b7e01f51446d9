package object

import "testing"

func TestAttachmentURL(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{
			"https://res.example.com/raw/upload/v1/docs/pan.pdf",
			"https://res.example.com/raw/upload/fl_attachment/v1/docs/pan.pdf",
		},
		{
			// Already rewritten URLs are left alone.
			"https://res.example.com/raw/upload/fl_attachment/v1/docs/pan.pdf",
			"https://res.example.com/raw/upload/fl_attachment/v1/docs/pan.pdf",
		},
		{
			// URLs without the /upload/ convention pass through.
			"http://localhost:8080/files/abc/doc.pdf",
			"http://localhost:8080/files/abc/doc.pdf",
		},
	}
	for _, tc := range cases {
		if got := AttachmentURL(tc.in); got != tc.want {
			t.Fatalf("AttachmentURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
