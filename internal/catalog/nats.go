package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

const SubjectTurnusCatalog = "catalog.turnus"

// Requester is the part of *nats.Conn the NATS source needs.
type Requester interface {
	RequestWithContext(ctx context.Context, subj string, data []byte) (*nats.Msg, error)
}

// NATSSource asks the catalog service for a turnus price list over
// request/reply.
type NATSSource struct {
	nc      Requester
	subject string
	timeout time.Duration
}

func NewNATSSource(nc Requester, timeout time.Duration) *NATSSource {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &NATSSource{nc: nc, subject: SubjectTurnusCatalog, timeout: timeout}
}

type catalogReply struct {
	Catalog *Catalog `json:"catalog"`
	Error   string   `json:"error,omitempty"`
}

func (s *NATSSource) Fetch(ctx context.Context, key TurnusKey) (*Catalog, error) {
	req, err := json.Marshal(key)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	msg, err := s.nc.RequestWithContext(ctx, s.subject, req)
	if err != nil {
		return nil, fmt.Errorf("catalog request %s: %w", key, err)
	}

	var reply catalogReply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return nil, fmt.Errorf("decode catalog reply %s: %w", key, err)
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("catalog service %s: %w", key, errors.New(reply.Error))
	}
	if reply.Catalog == nil {
		return &Catalog{}, nil
	}
	return reply.Catalog, nil
}
