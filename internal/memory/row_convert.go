package memory

import (
	"encoding/json"

	"github.com/marlonsc/mcb/internal/dbexec"
	"github.com/marlonsc/mcb/internal/mcberrors"
)

func rowToObservation(row dbexec.Row) (*Observation, error) {
	obs := Observation{}

	id, _, err := row.TryGetString("id")
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindMemory, "decode observation id", err)
	}
	obs.ID = id

	if obs.ProjectID, _, err = row.TryGetString("project_id"); err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindMemory, "decode observation project_id", err)
	}
	if obs.Content, _, err = row.TryGetString("content"); err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindMemory, "decode observation content", err)
	}
	if obs.ContentHash, _, err = row.TryGetString("content_hash"); err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindMemory, "decode observation content_hash", err)
	}

	tagsJSON, _, err := row.TryGetString("tags")
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindMemory, "decode observation tags", err)
	}
	if tagsJSON != "" {
		if err := json.Unmarshal([]byte(tagsJSON), &obs.Tags); err != nil {
			return nil, mcberrors.Wrap(mcberrors.KindMemory, "unmarshal observation tags", err)
		}
	}

	obsType, _, err := row.TryGetString("observation_type")
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindMemory, "decode observation_type", err)
	}
	obs.Type = ObservationType(obsType)

	metadataJSON, _, err := row.TryGetString("metadata")
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindMemory, "decode observation metadata", err)
	}
	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &obs.Metadata); err != nil {
			return nil, mcberrors.Wrap(mcberrors.KindMemory, "unmarshal observation metadata", err)
		}
	}

	if obs.CreatedAt, _, err = row.TryGetInt64("created_at"); err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindMemory, "decode observation created_at", err)
	}

	embeddingID, ok, err := row.TryGetString("embedding_id")
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindMemory, "decode observation embedding_id", err)
	}
	if ok {
		obs.EmbeddingID = &embeddingID
	}

	return &obs, nil
}

func rowsToObservations(rows []dbexec.Row) ([]Observation, error) {
	out := make([]Observation, 0, len(rows))
	for _, row := range rows {
		obs, err := rowToObservation(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *obs)
	}
	return out, nil
}

func rowToSessionSummary(row dbexec.Row) (*SessionSummary, error) {
	s := SessionSummary{}
	var err error

	if s.ID, _, err = row.TryGetString("id"); err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindMemory, "decode summary id", err)
	}
	if s.ProjectID, _, err = row.TryGetString("project_id"); err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindMemory, "decode summary project_id", err)
	}
	if s.SessionID, _, err = row.TryGetString("session_id"); err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindMemory, "decode summary session_id", err)
	}

	for _, f := range []struct {
		column string
		dest   *[]string
	}{
		{"topics", &s.Topics},
		{"decisions", &s.Decisions},
		{"next_steps", &s.NextSteps},
		{"key_files", &s.KeyFiles},
	} {
		raw, _, err := row.TryGetString(f.column)
		if err != nil {
			return nil, mcberrors.Wrap(mcberrors.KindMemory, "decode summary "+f.column, err)
		}
		if raw != "" {
			if err := json.Unmarshal([]byte(raw), f.dest); err != nil {
				return nil, mcberrors.Wrap(mcberrors.KindMemory, "unmarshal summary "+f.column, err)
			}
		}
	}

	originCtx, _, err := row.TryGetString("origin_context")
	if err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindMemory, "decode summary origin_context", err)
	}
	if originCtx != "" {
		if err := json.Unmarshal([]byte(originCtx), &s.OriginContext); err != nil {
			return nil, mcberrors.Wrap(mcberrors.KindMemory, "unmarshal summary origin_context", err)
		}
	}

	if s.CreatedAt, _, err = row.TryGetInt64("created_at"); err != nil {
		return nil, mcberrors.Wrap(mcberrors.KindMemory, "decode summary created_at", err)
	}

	return &s, nil
}
