package handlers

// GetRecordRequest is the request for reading a record.
type GetRecordRequest struct {
	Name string `doc:"The record name" example:"world" query:"name"`
}

// SetRecordRequest is the request for writing a record.
type SetRecordRequest struct {
	Name string `doc:"The record name" example:"world" query:"name"`
}

// MessageResponse is the response for both record operations.
type MessageResponse struct {
	Body struct {
		Message string `doc:"Greeting for the record name" example:"Hello, world" json:"message"`
	}
}
