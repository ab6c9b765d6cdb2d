package repository

import (
	"database/sql"
	"encoding/json"

	apperrors "github.com/allisson/authserver/internal/errors"
)

// marshalRedirectURIs encodes redirect URIs as a JSON array. A nil slice is stored as [].
func marshalRedirectURIs(redirectURIs []string) ([]byte, error) {
	if redirectURIs == nil {
		redirectURIs = []string{}
	}
	data, err := json.Marshal(redirectURIs)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal redirect uris")
	}
	return data, nil
}

func unmarshalRedirectURIs(data []byte) ([]string, error) {
	redirectURIs := make([]string, 0)
	if len(data) == 0 {
		return redirectURIs, nil
	}
	if err := json.Unmarshal(data, &redirectURIs); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal redirect uris")
	}
	return redirectURIs, nil
}

// marshalMetadata encodes audit metadata. A nil map is stored as NULL.
func marshalMetadata(metadata map[string]any) ([]byte, error) {
	if metadata == nil {
		return nil, nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal audit log metadata")
	}
	return data, nil
}

// rowsAffected returns the affected row count of an exec result.
func rowsAffected(result sql.Result) (int64, error) {
	count, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get rows affected")
	}
	return count, nil
}
