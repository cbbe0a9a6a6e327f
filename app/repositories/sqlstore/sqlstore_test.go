package sqlstore_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/billdesk/app/repositories"
	"github.com/shashiranjanraj/billdesk/app/repositories/repotest"
	"github.com/shashiranjanraj/billdesk/app/repositories/sqlstore"
	"github.com/shashiranjanraj/billdesk/pkg/database"
)

func newStore(t *testing.T) repositories.Store {
	t.Helper()

	// A named shared-cache database per test keeps the in-memory data alive
	// across pooled connections.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.OpenSQL("sqlite", dsn, database.SQLOptions{MaxOpenConns: 1, MaxIdleConns: 1})
	require.NoError(t, err)

	s := sqlstore.New(db)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestContract(t *testing.T) {
	repotest.Run(t, newStore)
}
