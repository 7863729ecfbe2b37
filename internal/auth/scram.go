package auth

import (
	"fmt"

	"github.com/xdg-go/scram"
)

// ScramClient drives one SCRAM-SHA-256 exchange across the SASL/
// SASLContinue/SASLFinal message sequence (§4.4 "delegating SCRAM to the
// external auth helper"). The SCRAM math itself lives in xdg-go/scram;
// this type only sequences it against the three wire messages.
type ScramClient struct {
	conv *scram.ClientConversation
	done bool
}

// Mechanism is the SASL mechanism name advertised in AuthenticationSASL
// and echoed back in the client's initial response.
const Mechanism = "SCRAM-SHA-256"

// NewScramClient begins a SCRAM-SHA-256 conversation for user/password.
// authzID is almost always empty; PostgreSQL does not use it.
func NewScramClient(user, password string) (*ScramClient, error) {
	client, err := scram.SHA256.NewClient(user, password, "")
	if err != nil {
		return nil, fmt.Errorf("pgwire: scram client init: %w", err)
	}
	return &ScramClient{conv: client.NewConversation()}, nil
}

// InitialResponse produces the client-first-message sent as the payload
// of the initial SASL response (`p`), prefixed by the caller with the
// mechanism name and length per the wire format.
func (c *ScramClient) InitialResponse() (string, error) {
	msg, err := c.conv.Step("")
	if err != nil {
		return "", fmt.Errorf("pgwire: scram client-first: %w", err)
	}
	return msg, nil
}

// Continue consumes AuthenticationSASLContinue's payload (the server's
// first message) and returns the client-final-message.
func (c *ScramClient) Continue(serverFirst string) (string, error) {
	msg, err := c.conv.Step(serverFirst)
	if err != nil {
		return "", fmt.Errorf("pgwire: scram client-final: %w", err)
	}
	return msg, nil
}

// Final consumes AuthenticationSASLFinal's payload (the server's
// verification message) and confirms mutual authentication succeeded.
func (c *ScramClient) Final(serverFinal string) error {
	if _, err := c.conv.Step(serverFinal); err != nil {
		return fmt.Errorf("pgwire: scram server verification: %w", err)
	}
	if !c.conv.Done() {
		return fmt.Errorf("pgwire: scram conversation ended without confirmation")
	}
	c.done = true
	return nil
}

// Done reports whether the exchange completed and was verified.
func (c *ScramClient) Done() bool { return c.done }
