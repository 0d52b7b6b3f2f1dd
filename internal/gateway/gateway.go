// internal/gateway/gateway.go
//
// The gateway is the only door to the remote entity store. Each method is one
// request/response pair; nothing here retries or caches.

package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/kingrea/sistema-obras/internal/domain"
)

// ErrNotFound is returned by stores that can tell a missing entity apart.
var ErrNotFound = errors.New("gateway: not found")

// Kind names an entity collection.
type Kind string

const (
	KindWork       Kind = "obras"
	KindInspection Kind = "fiscalizacoes"
)

// Params are list filters, sent as query parameters.
type Params map[string]string

func (p Params) values() url.Values {
	if len(p) == 0 {
		return nil
	}
	v := url.Values{}
	for key, value := range p {
		v.Set(key, value)
	}
	return v
}

// Gateway is the remote entity store.
type Gateway interface {
	ListWorks(ctx context.Context, params Params) ([]domain.Work, error)
	GetWork(ctx context.Context, id string) (domain.Work, error)
	CreateWork(ctx context.Context, payload domain.WorkPayload) (domain.Work, error)
	UpdateWork(ctx context.Context, id string, payload domain.WorkPayload) (domain.Work, error)
	DeleteWork(ctx context.Context, id string) error

	ListInspections(ctx context.Context, params Params) ([]domain.Inspection, error)
	GetInspection(ctx context.Context, id string) (domain.Inspection, error)
	CreateInspection(ctx context.Context, payload domain.InspectionPayload) (domain.Inspection, error)
	UpdateInspection(ctx context.Context, id string, payload domain.InspectionPayload) (domain.Inspection, error)
	DeleteInspection(ctx context.Context, id string) error

	ListInspectionsOfWork(ctx context.Context, workID string) ([]domain.Inspection, error)
	SendWorkReport(ctx context.Context, workID, recipient string) error
}

// Logger matches logbook.Logbook's Printf.
type Logger interface {
	Printf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// RemoteError is any non-success response from the remote service.
type RemoteError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gateway: %s %s: %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("gateway: %s %s: status %d", e.Method, e.Path, e.Status)
}

// UserMessage picks the text shown to the user for err: the provider's
// message when it sent one, otherwise fallback.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var remote *RemoteError
	if errors.As(err, &remote) && strings.TrimSpace(remote.Message) != "" {
		return remote.Message
	}
	if errors.Is(err, ErrNotFound) {
		return "Record not found."
	}
	return fallback
}

func requireID(kind Kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("gateway: %s id is required", kind)
	}
	return nil
}

var (
	_ Gateway = (*Client)(nil)
	_ Gateway = (*Memory)(nil)
)
