package pipelines

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agencyhub/backend/internal/models"
	"github.com/agencyhub/backend/pkg/database"
)

// Repository reads pipelines, lanes and tickets.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a pipelines repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID returns the pipeline or nil.
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Pipeline, error) {
	const q = `SELECT id, name, subaccount_id, created_at, updated_at FROM pipelines WHERE id = $1`
	var p models.Pipeline
	err := r.pool.QueryRow(ctx, q, id).Scan(&p.ID, &p.Name, &p.SubAccountID, &p.CreatedAt, &p.UpdatedAt)
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// LaneSubAccount returns the sub-account owning a lane, or "" when the lane does not exist.
func (r *Repository) LaneSubAccount(ctx context.Context, laneID string) (string, error) {
	const q = `SELECT p.subaccount_id FROM lanes l INNER JOIN pipelines p ON p.id = l.pipeline_id WHERE l.id = $1`
	var id string
	err := r.pool.QueryRow(ctx, q, laneID).Scan(&id)
	if database.IsNoRows(err) {
		return "", nil
	}
	return id, err
}

const ticketSelect = `SELECT t.id, t.name, t.lane_id, t."order", t.value::float8, t.description, t.customer_id,
		t.assigned_user_id, t.created_at, t.updated_at,
		l.id, l.name, l.pipeline_id, l."order",
		c.id, c.name, c.email, c.subaccount_id,
		u.id, u.email, u.name, u.avatar_url, u.role, u.agency_id, u.created_at, u.updated_at
	FROM tickets t
	INNER JOIN lanes l ON l.id = t.lane_id
	LEFT JOIN contacts c ON c.id = t.customer_id
	LEFT JOIN users u ON u.id = t.assigned_user_id`

// TicketsByPipeline returns every ticket in the pipeline's lanes with tags, assignee and customer.
func (r *Repository) TicketsByPipeline(ctx context.Context, pipelineID string) ([]models.TicketDetails, error) {
	return r.tickets(ctx, ticketSelect+` WHERE l.pipeline_id = $1 ORDER BY l."order", t."order"`, pipelineID, false)
}

// TicketsByLane returns the lane's tickets with tags, assignee, customer and lane.
func (r *Repository) TicketsByLane(ctx context.Context, laneID string) ([]models.TicketDetails, error) {
	return r.tickets(ctx, ticketSelect+` WHERE t.lane_id = $1 ORDER BY t."order"`, laneID, true)
}

func (r *Repository) tickets(ctx context.Context, q, arg string, withLane bool) ([]models.TicketDetails, error) {
	rows, err := r.pool.Query(ctx, q, arg)
	if err != nil {
		return nil, fmt.Errorf("query tickets: %w", err)
	}
	list, err := scanTickets(rows, withLane)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return list, nil
	}
	return list, r.attachTags(ctx, list)
}

func scanTickets(rows pgx.Rows, withLane bool) ([]models.TicketDetails, error) {
	defer rows.Close()
	list := []models.TicketDetails{}
	for rows.Next() {
		var (
			t                                    models.TicketDetails
			lane                                 models.Lane
			cID, cName, cEmail, cSub             *string
			uID, uEmail, uName, uAvatar, uAgency *string
			uRole                                *string
			uCreated, uUpdated                   *time.Time
		)
		if err := rows.Scan(&t.ID, &t.Name, &t.LaneID, &t.Order, &t.Value, &t.Description, &t.CustomerID,
			&t.AssignedUserID, &t.CreatedAt, &t.UpdatedAt,
			&lane.ID, &lane.Name, &lane.PipelineID, &lane.Order,
			&cID, &cName, &cEmail, &cSub,
			&uID, &uEmail, &uName, &uAvatar, &uRole, &uAgency, &uCreated, &uUpdated); err != nil {
			return nil, err
		}
		if withLane {
			t.Lane = &lane
		}
		if cID != nil {
			t.Customer = &models.Contact{ID: *cID, Name: *cName, Email: *cEmail, SubAccountID: *cSub}
		}
		if uID != nil {
			t.Assigned = &models.User{ID: *uID, Email: *uEmail, Name: *uName, AvatarURL: *uAvatar, Role: models.Role(*uRole),
				AgencyID: uAgency, CreatedAt: *uCreated, UpdatedAt: *uUpdated}
		}
		t.Tags = []models.Tag{}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *Repository) attachTags(ctx context.Context, list []models.TicketDetails) error {
	ids := make([]string, len(list))
	index := make(map[string]int, len(list))
	for i, t := range list {
		ids[i] = t.ID
		index[t.ID] = i
	}
	const q = `SELECT tt.ticket_id, g.id, g.name, g.color, g.subaccount_id
		FROM ticket_tags tt
		INNER JOIN tags g ON g.id = tt.tag_id
		WHERE tt.ticket_id = ANY($1)
		ORDER BY g.name`
	rows, err := r.pool.Query(ctx, q, ids)
	if err != nil {
		return fmt.Errorf("query ticket tags: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ticketID string
		var g models.Tag
		if err := rows.Scan(&ticketID, &g.ID, &g.Name, &g.Color, &g.SubAccountID); err != nil {
			return err
		}
		i := index[ticketID]
		list[i].Tags = append(list[i].Tags, g)
	}
	return rows.Err()
}
