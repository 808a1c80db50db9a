package events

import "time"

// TopicRecordWritten carries one event per successful record write.
const TopicRecordWritten = "record.written"

// RecordWritten is emitted after a record has been created or rewritten.
type RecordWritten struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Created   bool      `json:"created"`
	WrittenAt time.Time `json:"writtenAt"`
	RequestID string    `json:"requestId,omitempty"`
	ClientIP  string    `json:"clientIp,omitempty"`
}
