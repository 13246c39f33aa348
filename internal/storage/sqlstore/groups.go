package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/spendsplit/internal/models"
	"github.com/mmynk/spendsplit/internal/storage"
)

// CreateGroup inserts a group and its members in one transaction.
func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO user_groups (id, name, description, created_by) VALUES (?, ?, ?, ?)",
		group.ID, group.Name, group.Description, group.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	for i, m := range group.Members {
		joined := m.JoinedAt
		if joined.IsZero() {
			joined = time.Now()
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO group_members (group_id, user_id, role, joined_at, position) VALUES (?, ?, ?, ?, ?)",
			group.ID, m.UserID, string(m.Role), joined.UnixMilli(), i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert group member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetGroup retrieves a group with its members in membership order.
func (s *Store) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, description, created_by FROM user_groups WHERE id = ?",
		groupID,
	).Scan(&group.ID, &group.Name, &group.Description, &group.CreatedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	if err := s.loadMembers(ctx, map[string]*models.Group{group.ID: group}); err != nil {
		return nil, err
	}
	return group, nil
}

// GroupsByMember lists the groups userID belongs to, ordered by name.
func (s *Store) GroupsByMember(ctx context.Context, userID string) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT g.id, g.name, g.description, g.created_by
		FROM user_groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = ?
		ORDER BY g.name, g.id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}

	var groups []*models.Group
	byID := make(map[string]*models.Group)
	for rows.Next() {
		g := &models.Group{}
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.CreatedBy); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
		byID[g.ID] = g
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	rows.Close()

	if len(groups) == 0 {
		return groups, nil
	}
	if err := s.loadMembers(ctx, byID); err != nil {
		return nil, err
	}
	return groups, nil
}

func (s *Store) loadMembers(ctx context.Context, byID map[string]*models.Group) error {
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}

	return forEachChunk(ids, func(chunk []string) error {
		rows, err := s.db.QueryContext(ctx,
			"SELECT group_id, user_id, role, joined_at FROM group_members WHERE group_id IN ("+
				placeholders(len(chunk))+") ORDER BY group_id, position",
			stringArgs(chunk)...,
		)
		if err != nil {
			return fmt.Errorf("failed to query group members: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var (
				groupID  string
				role     string
				joinedMs int64
				member   models.Member
			)
			if err := rows.Scan(&groupID, &member.UserID, &role, &joinedMs); err != nil {
				return fmt.Errorf("failed to scan group member: %w", err)
			}
			member.Role = models.Role(role)
			member.JoinedAt = time.UnixMilli(joinedMs)
			if g, ok := byID[groupID]; ok {
				g.Members = append(g.Members, member)
			}
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to iterate group members: %w", err)
		}
		return nil
	})
}
