package consumer

import (
	"context"
	"sort"

	"moltyverse/internal/backend"
)

const messagesListPath = "messages:listDirect"

// Message is a direct message between two users or moltys.
type Message struct {
	ID          string `json:"_id"`
	SenderID    string `json:"senderId"`
	RecipientID string `json:"recipientId"`
	Body        string `json:"body"`
	CreatedAt   int64  `json:"_creationTime"`
}

// Thread is the conversation with one partner, oldest message first.
type Thread struct {
	PartnerID string
	Messages  []Message
}

// Last returns the most recent message.
func (t Thread) Last() Message {
	return t.Messages[len(t.Messages)-1]
}

// GroupThreads groups messages by conversation partner. Threads are ordered
// by their latest message, newest first.
func GroupThreads(messages []Message, selfID string) []Thread {
	byPartner := make(map[string][]Message)
	for _, m := range messages {
		partner := m.SenderID
		if partner == selfID {
			partner = m.RecipientID
		}
		if partner == "" || partner == selfID {
			continue
		}
		byPartner[partner] = append(byPartner[partner], m)
	}

	threads := make([]Thread, 0, len(byPartner))
	for partner, msgs := range byPartner {
		sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].CreatedAt < msgs[j].CreatedAt })
		threads = append(threads, Thread{PartnerID: partner, Messages: msgs})
	}

	sort.Slice(threads, func(i, j int) bool {
		li, lj := threads[i].Last().CreatedAt, threads[j].Last().CreatedAt
		if li != lj {
			return li > lj
		}
		return threads[i].PartnerID < threads[j].PartnerID
	})
	return threads
}

// Messages reads direct messages.
type Messages struct {
	backend *backend.Client
}

// NewMessages creates a Messages consumer.
func NewMessages(b *backend.Client) *Messages {
	return &Messages{backend: b}
}

// Threads loads the user's direct messages grouped into threads.
func (m *Messages) Threads(ctx context.Context, selfID string) ([]Thread, error) {
	msgs, err := backend.Decode[[]Message](ctx, m.backend, backend.KindQuery, messagesListPath, nil)
	if err != nil {
		return nil, err
	}
	return GroupThreads(msgs, selfID), nil
}
