package aws

import "encoding/json"

// snsNotification is the envelope SNS wraps around messages delivered to SQS
// without raw message delivery.
type snsNotification struct {
	Type     string `json:"Type"`
	TopicArn string `json:"TopicArn"`
	Message  string `json:"Message"`
}

// UnwrapSNS returns the inner message of an SNS->SQS delivery, or body
// unchanged when it is not an SNS notification.
func UnwrapSNS(body string) string {
	var n snsNotification
	if err := json.Unmarshal([]byte(body), &n); err != nil {
		return body
	}
	if n.Type != "Notification" || n.TopicArn == "" {
		return body
	}
	return n.Message
}

func peekEventType(message []byte) string {
	var probe struct {
		EventType string `json:"event_type"`
	}
	if err := json.Unmarshal(message, &probe); err != nil {
		return ""
	}
	return probe.EventType
}
