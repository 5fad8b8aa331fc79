package services

import (
	"context"
	"fmt"

	"github.com/HammerMeetNail/friendgraph/internal/models"
)

type UserAttribute string

const (
	AttributeCareer   UserAttribute = "career"
	AttributeSemester UserAttribute = "semester"
)

// userAttributeColumns whitelists the columns ListByAttribute may filter on.
var userAttributeColumns = map[UserAttribute]string{
	AttributeCareer:   "career",
	AttributeSemester: "semester",
}

// PostgresUserDirectory reads the users table.
type PostgresUserDirectory struct {
	db DB
}

func NewPostgresUserDirectory(db DB) *PostgresUserDirectory {
	return &PostgresUserDirectory{db: db}
}

func (d *PostgresUserDirectory) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	user := &models.User{}
	err := d.db.QueryRow(ctx,
		`SELECT id, username, full_name, career, semester, is_active
		 FROM users WHERE id = $1`,
		userID,
	).Scan(&user.ID, &user.Username, &user.FullName, &user.Career, &user.Semester, &user.IsActive)
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by id: %w", err)
	}
	return user, nil
}

func (d *PostgresUserDirectory) IsUserActive(ctx context.Context, userID int64) (bool, error) {
	var active bool
	err := d.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE id = $1 AND is_active)",
		userID,
	).Scan(&active)
	if err != nil {
		return false, fmt.Errorf("checking user active: %w", err)
	}
	return active, nil
}

// ListByAttribute returns active users sharing value on attr, lowest IDs
// first, skipping anyone in exclude.
func (d *PostgresUserDirectory) ListByAttribute(ctx context.Context, attr UserAttribute, value any, exclude []int64, limit int) ([]int64, error) {
	column, ok := userAttributeColumns[attr]
	if !ok {
		return nil, fmt.Errorf("unknown user attribute %q", attr)
	}
	if exclude == nil {
		exclude = []int64{}
	}

	rows, err := d.db.Query(ctx,
		fmt.Sprintf(`SELECT id FROM users
		 WHERE is_active AND %s = $1 AND NOT (id = ANY($2))
		 ORDER BY id
		 LIMIT $3`, column),
		value, exclude, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing users by %s: %w", attr, err)
	}
	return collectIDs(rows)
}
