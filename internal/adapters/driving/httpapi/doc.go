// Package httpapi exposes ingestion and question answering over a JSON HTTP API.
//
// Routes:
//
//	GET    /health
//	POST   /v1/documents          multipart upload, field "file"
//	GET    /v1/documents
//	GET    /v1/documents/{id}
//	DELETE /v1/documents/{id}
//	DELETE /v1/documents          reset the session
//	POST   /v1/ask                {"question": "..."}
//	GET    /v1/stats
package httpapi
