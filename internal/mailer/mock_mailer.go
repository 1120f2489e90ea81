package mailer

import (
	"slices"
	"sync"
)

// SentEmail is one message captured by MockMailer.
type SentEmail struct {
	Recipient    string
	TemplateFile string
	Data         any
}

// MockMailer captures outgoing mail, such as password reset codes, instead of delivering it.
type MockMailer struct {
	mu   sync.Mutex
	sent []SentEmail
}

func NewMockMailer() *MockMailer {
	return &MockMailer{}
}

func (m *MockMailer) Send(recipient, templateFile string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sent = append(m.sent, SentEmail{
		Recipient:    recipient,
		TemplateFile: templateFile,
		Data:         data,
	})

	return nil
}

// Sent returns the captured messages in send order.
func (m *MockMailer) Sent() []SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.sent)
}

// LastCode returns the one-time code of the latest password reset mail sent to recipient.
func (m *MockMailer) LastCode(recipient string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, email := range slices.Backward(m.sent) {
		if email.Recipient != recipient {
			continue
		}

		data, ok := email.Data.(map[string]any)
		if !ok {
			continue
		}

		code, ok := data["code"].(string)
		if ok {
			return code, true
		}
	}

	return "", false
}

func (m *MockMailer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sent = nil
}
