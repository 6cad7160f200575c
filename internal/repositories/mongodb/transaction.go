package mongodb

import (
	"context"

	"github.com/ArowuTest/padel-arena-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/mongo"
)

// Transactor runs callbacks in a multi-document transaction. It needs a
// replica set or sharded cluster.
type Transactor struct {
	client *mongo.Client
}

// NewTransactor creates a new Transactor
func NewTransactor(client *mongo.Client) repositories.Transactor {
	return &Transactor{client: client}
}

// WithTransaction commits when fn returns nil and aborts otherwise. The driver
// retries fn on transient transaction errors.
func (t *Transactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
