package store

import (
	"encoding/json"
	"errors"
	"time"
)

// CurrentSchemaVersion is the version written into persisted principal
// envelopes. Loads of an unknown version are treated like corruption: the
// session is cleared rather than partially interpreted.
const CurrentSchemaVersion = 1

// Principal is the persisted identity record. RawRole carries the role
// string exactly as the account service reported it; canonicalization
// happens in the session manager, never here.
type Principal struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	DisplayName   string    `json:"display_name"`
	RawRole       string    `json:"raw_role"`
	Phone         string    `json:"phone,omitempty"`
	EmailVerified bool      `json:"email_verified"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Record is the unit of persistence: one principal and one opaque token
// pair. The tokens are never parsed or inspected; they are stored and
// replayed verbatim.
type Record struct {
	Principal    Principal
	AccessToken  string
	RefreshToken string
}

type principalEnvelope struct {
	SchemaVersion int       `json:"schema_version"`
	Principal     Principal `json:"principal"`
}

var errEnvelopeInvalid = errors.New("principal envelope invalid")

func encodePrincipal(p Principal) ([]byte, error) {
	return json.Marshal(principalEnvelope{
		SchemaVersion: CurrentSchemaVersion,
		Principal:     p,
	})
}

func decodePrincipal(data []byte) (Principal, error) {
	var env principalEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Principal{}, errEnvelopeInvalid
	}
	if env.SchemaVersion != CurrentSchemaVersion {
		return Principal{}, errEnvelopeInvalid
	}
	if env.Principal.ID == "" {
		return Principal{}, errEnvelopeInvalid
	}
	return env.Principal, nil
}
