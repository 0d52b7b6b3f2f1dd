package lifecycle

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/kingrea/sistema-obras/internal/gateway"
)

// ValidateRecipient normalizes an e-mail address typed by the user. Display
// names are rejected; the remote service expects a bare address.
func ValidateRecipient(recipient string) (string, error) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return "", fmt.Errorf("enter an e-mail address")
	}
	addr, err := mail.ParseAddress(recipient)
	if err != nil || addr.Name != "" || addr.Address != recipient {
		return "", fmt.Errorf("%q is not a valid e-mail address", recipient)
	}
	return addr.Address, nil
}

// SendReport asks the remote service to e-mail the work report. An invalid
// recipient makes no call.
func SendReport(ctx context.Context, gw gateway.Gateway, workID, recipient string) error {
	addr, err := ValidateRecipient(recipient)
	if err != nil {
		return err
	}
	if err := gw.SendWorkReport(ctx, workID, addr); err != nil {
		return fmt.Errorf("lifecycle: send report for %s: %w", workID, err)
	}
	return nil
}
