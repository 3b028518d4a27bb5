//go:build integration

package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/nxt3d/smart-credentials/pkg/domain"
	"github.com/nxt3d/smart-credentials/pkg/testutil/containers"
)

type PostgresStoreIntegrationSuite struct {
	suite.Suite
	pg       *containers.PostgresContainer
	provider Provider
	ctx      context.Context
}

func (s *PostgresStoreIntegrationSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.ctx = context.Background()
	s.Require().NoError(EnsureSchema(s.ctx, s.pg.Pool))
	s.provider = NewPostgresProvider(s.pg.Pool)
}

func (s *PostgresStoreIntegrationSuite) SetupTest() {
	_, err := s.pg.Pool.Exec(s.ctx, "TRUNCATE credential_records")
	s.Require().NoError(err)
}

func TestPostgresStoreIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreIntegrationSuite))
}

func (s *PostgresStoreIntegrationSuite) TestAbsentReadsAsEmpty() {
	store := s.provider.StoreFor(domain.Address("instance-a"))

	value, err := store.Get(s.ctx, NamespaceAgentMetadata, AgentMetadataKey(1, "k"))
	s.Require().NoError(err)
	s.Empty(value)
}

func (s *PostgresStoreIntegrationSuite) TestUpsertLastWriteWins() {
	store := s.provider.StoreFor(domain.Address("instance-a"))
	key := AgentMetadataKey(9, "status")

	s.Require().NoError(store.Set(s.ctx, NamespaceAgentMetadata, key, []byte("v1")))
	s.Require().NoError(store.Set(s.ctx, NamespaceAgentMetadata, key, []byte("v2")))

	value, err := store.Get(s.ctx, NamespaceAgentMetadata, key)
	s.Require().NoError(err)
	s.Equal([]byte("v2"), value)
}

func (s *PostgresStoreIntegrationSuite) TestInstanceIsolationOnSharedPool() {
	storeA := s.provider.StoreFor(domain.Address("instance-a"))
	storeB := s.provider.StoreFor(domain.Address("instance-b"))
	key := InstanceMetadataKey("name")

	s.Require().NoError(storeA.Set(s.ctx, NamespaceInstanceMetadata, key, []byte("Widget")))

	value, err := storeB.Get(s.ctx, NamespaceInstanceMetadata, key)
	s.Require().NoError(err)
	s.Empty(value)
}

func (s *PostgresStoreIntegrationSuite) TestExplicitEmptyValue() {
	store := s.provider.StoreFor(domain.Address("instance-a"))
	key := ReviewKey(3, 3)

	s.Require().NoError(store.Set(s.ctx, NamespaceReviews, key, []byte{}))

	value, err := store.Get(s.ctx, NamespaceReviews, key)
	s.Require().NoError(err)
	s.Empty(value)
}
