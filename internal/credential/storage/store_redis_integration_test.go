//go:build integration

package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/nxt3d/smart-credentials/pkg/domain"
	"github.com/nxt3d/smart-credentials/pkg/testutil/containers"
)

type RedisStoreIntegrationSuite struct {
	suite.Suite
	redis    *containers.RedisContainer
	provider Provider
	ctx      context.Context
}

func (s *RedisStoreIntegrationSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.provider = NewRedisProvider(s.redis.Client)
	s.ctx = context.Background()
}

func (s *RedisStoreIntegrationSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func TestRedisStoreIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreIntegrationSuite))
}

func (s *RedisStoreIntegrationSuite) TestAbsentReadsAsEmpty() {
	store := s.provider.StoreFor(domain.Address("instance-a"))

	value, err := store.Get(s.ctx, NamespaceAgentMetadata, AgentMetadataKey(1, "k"))
	s.Require().NoError(err)
	s.Empty(value)
}

func (s *RedisStoreIntegrationSuite) TestLastWriteWins() {
	store := s.provider.StoreFor(domain.Address("instance-a"))
	key := AgentMetadataKey(1, "k")

	s.Require().NoError(store.Set(s.ctx, NamespaceAgentMetadata, key, []byte("v1")))
	s.Require().NoError(store.Set(s.ctx, NamespaceAgentMetadata, key, []byte("v2")))

	value, err := store.Get(s.ctx, NamespaceAgentMetadata, key)
	s.Require().NoError(err)
	s.Equal([]byte("v2"), value)
}

func (s *RedisStoreIntegrationSuite) TestInstanceIsolationOnSharedClient() {
	storeA := s.provider.StoreFor(domain.Address("instance-a"))
	storeB := s.provider.StoreFor(domain.Address("instance-b"))
	key := ReviewKey(1, 2)

	s.Require().NoError(storeA.Set(s.ctx, NamespaceReviews, key, []byte("great")))

	value, err := storeB.Get(s.ctx, NamespaceReviews, key)
	s.Require().NoError(err)
	s.Empty(value)

	value, err = storeA.Get(s.ctx, NamespaceReviews, key)
	s.Require().NoError(err)
	s.Equal([]byte("great"), value)
}

func (s *RedisStoreIntegrationSuite) TestExplicitEmptyValue() {
	store := s.provider.StoreFor(domain.Address("instance-a"))
	key := InstanceMetadataKey("blank")

	s.Require().NoError(store.Set(s.ctx, NamespaceInstanceMetadata, key, []byte{}))

	value, err := store.Get(s.ctx, NamespaceInstanceMetadata, key)
	s.Require().NoError(err)
	s.Empty(value)
}
