package geostore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// attachment kinds stored in the kind column.
const (
	kindAttachment = "attachment"
	kindPicture    = "picture"
)

// AddAttachment records a file attachment for a feature.
func (s *Store) AddAttachment(ctx context.Context, a Attachment) (Attachment, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if err := s.addFile(ctx, kindAttachment, a.ID, a.Feature, a.Category, a.Legend, a.File); err != nil {
		return Attachment{}, err
	}
	return a, nil
}

// ListAttachments returns a feature's attachments.
func (s *Store) ListAttachments(ctx context.Context, featureID string) ([]Attachment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, feature_id, category, legend, file FROM attachments WHERE feature_id = ? AND kind = ? ORDER BY id`,
		featureID, kindAttachment)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Attachment{}
	for rows.Next() {
		var a Attachment
		if err := rows.Scan(&a.ID, &a.Feature, &a.Category, &a.Legend, &a.File); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteAttachment removes an attachment record.
func (s *Store) DeleteAttachment(ctx context.Context, id string) error {
	return s.deleteFile(ctx, kindAttachment, id)
}

// AddPicture records a picture for a feature.
func (s *Store) AddPicture(ctx context.Context, p Picture) (Picture, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := s.addFile(ctx, kindPicture, p.ID, p.Feature, p.Category, p.Legend, p.File); err != nil {
		return Picture{}, err
	}
	return p, nil
}

// ListPictures returns a feature's pictures.
func (s *Store) ListPictures(ctx context.Context, featureID string) ([]Picture, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, feature_id, category, legend, file FROM attachments WHERE feature_id = ? AND kind = ? ORDER BY id`,
		featureID, kindPicture)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Picture{}
	for rows.Next() {
		var p Picture
		if err := rows.Scan(&p.ID, &p.Feature, &p.Category, &p.Legend, &p.File); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeletePicture removes a picture record.
func (s *Store) DeletePicture(ctx context.Context, id string) error {
	return s.deleteFile(ctx, kindPicture, id)
}

func (s *Store) addFile(ctx context.Context, kind, id, featureID, category, legend, file string) error {
	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM features WHERE id = ?`, featureID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("feature %q: %w", featureID, ErrNotFound)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attachments (id, feature_id, kind, category, legend, file) VALUES (?, ?, ?, ?, ?, ?)`,
		id, featureID, kind, category, legend, file)
	return err
}

func (s *Store) deleteFile(ctx context.Context, kind, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM attachments WHERE id = ? AND kind = ?`, id, kind)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
	}
	return nil
}
