package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/luizfprog/betesportes-api/internal/auth"
)

// Offer mirrors the 'offers' table: a promotional banner with a call to
// action link.
type Offer struct {
	ID               uint64  `json:"id"`
	Name             string  `json:"name"`
	OfferDescription string  `json:"offerDescription"`
	OfferImageLink   string  `json:"offerImageLink"`
	OfferButtonLink  string  `json:"offerButtonLink"`
	OwnerID          *uint64 `json:"ownerId"`
	OwnerCompany     *string `json:"-"`
}

type OfferRepo struct{ DB *sql.DB }

func NewOfferRepo(db *sql.DB) *OfferRepo { return &OfferRepo{DB: db} }

func (r *OfferRepo) Create(ctx context.Context, o *Offer) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO offers (name, offer_description, offer_image_link, offer_button_link, owner_id) VALUES (?,?,?,?,?)",
		o.Name, o.OfferDescription, o.OfferImageLink, o.OfferButtonLink, o.OwnerID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	return nil
}

func (r *OfferRepo) GetByID(ctx context.Context, id uint64) (*Offer, error) {
	const q = `SELECT o.id, o.name, o.offer_description, o.offer_image_link, o.offer_button_link, o.owner_id, u.company_name
	           FROM offers o LEFT JOIN app_user u ON o.owner_id = u.id WHERE o.id = ?`
	var o Offer
	err := r.DB.QueryRowContext(ctx, q, id).
		Scan(&o.ID, &o.Name, &o.OfferDescription, &o.OfferImageLink, &o.OfferButtonLink, &o.OwnerID, &o.OwnerCompany)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OfferRepo) List(ctx context.Context, scope auth.Scope) ([]*Offer, error) {
	if scope.Empty() {
		return nil, nil
	}
	q := `SELECT o.id, o.name, o.offer_description, o.offer_image_link, o.offer_button_link, o.owner_id, u.company_name
	      FROM offers o LEFT JOIN app_user u ON o.owner_id = u.id`
	where, args := ownerScopeClause(scope)
	rows, err := r.DB.QueryContext(ctx, q+where+" ORDER BY o.id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Offer
	for rows.Next() {
		o := new(Offer)
		if err := rows.Scan(&o.ID, &o.Name, &o.OfferDescription, &o.OfferImageLink, &o.OfferButtonLink, &o.OwnerID, &o.OwnerCompany); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *OfferRepo) Update(ctx context.Context, o *Offer) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE offers SET name=?, offer_description=?, offer_image_link=?, offer_button_link=? WHERE id=?",
		o.Name, o.OfferDescription, o.OfferImageLink, o.OfferButtonLink, o.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *OfferRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM offers WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
