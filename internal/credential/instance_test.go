package credential

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/nxt3d/smart-credentials/internal/credential/storage"
	"github.com/nxt3d/smart-credentials/internal/registry"
	"github.com/nxt3d/smart-credentials/pkg/domain"
	dErrors "github.com/nxt3d/smart-credentials/pkg/domain-errors"
)

const (
	owner    = domain.Address("owner")
	stranger = domain.Address("stranger")

	registryR  = domain.Address("registry/r")
	registryR2 = domain.Address("registry/r2")

	agentOne = domain.AgentID(1)
	agentTwo = domain.AgentID(2)
)

type InstanceSuite struct {
	suite.Suite
	resolver *registry.Resolver
	regR     *registry.InMemory
	regR2    *registry.InMemory
	stores   storage.Provider
	instance *Instance
	ctx      context.Context
}

func (s *InstanceSuite) SetupTest() {
	s.regR = registry.NewInMemory()
	s.regR2 = registry.NewInMemory()
	s.resolver = registry.NewResolver(registry.NewInMemory())
	s.resolver.Register(registryR, s.regR)
	s.resolver.Register(registryR2, s.regR2)
	s.stores = storage.NewInMemoryProvider()
	s.ctx = context.Background()

	// Agent 1 and 2 exist in R, owned by owner; R2 knows neither.
	s.regR.RegisterAgent(agentOne, owner)
	s.regR.RegisterAgent(agentTwo, owner)

	instance, err := New(domain.Address("instance-1"), owner, registryR, s.resolver, s.stores)
	s.Require().NoError(err)
	s.instance = instance
}

func TestInstanceSuite(t *testing.T) {
	suite.Run(t, new(InstanceSuite))
}

func (s *InstanceSuite) TestDirectConstruction() {
	s.Run("null registry binds the well-known default", func() {
		instance, err := New(domain.Address("instance-x"), owner, domain.NullAddress, s.resolver, s.stores)
		s.Require().NoError(err)
		s.Equal(registry.DefaultAddress, instance.RegistryAddress())
		s.Equal(StateInitialized, instance.State())
	})

	s.Run("unresolvable registry is rejected", func() {
		_, err := New(domain.Address("instance-y"), owner, domain.Address("registry/nowhere"), s.resolver, s.stores)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidRegistry))
	})
}

func (s *InstanceSuite) TestAgentMetadata() {
	s.Run("owner writes and anyone reads", func() {
		s.Require().NoError(s.instance.SetAgentMetadata(s.ctx, owner, agentOne, "k", []byte("v1")))

		value, err := s.instance.GetAgentMetadata(s.ctx, agentOne, "k")
		s.Require().NoError(err)
		s.Equal([]byte("v1"), value)
	})

	s.Run("last write wins", func() {
		s.Require().NoError(s.instance.SetAgentMetadata(s.ctx, owner, agentOne, "k", []byte("v1")))
		s.Require().NoError(s.instance.SetAgentMetadata(s.ctx, owner, agentOne, "k", []byte("v2")))

		value, err := s.instance.GetAgentMetadata(s.ctx, agentOne, "k")
		s.Require().NoError(err)
		s.Equal([]byte("v2"), value)
	})

	s.Run("absent and explicitly empty are indistinguishable", func() {
		value, err := s.instance.GetAgentMetadata(s.ctx, agentOne, "never-written")
		s.Require().NoError(err)
		s.Empty(value)

		s.Require().NoError(s.instance.SetAgentMetadata(s.ctx, owner, agentOne, "blank", []byte{}))
		value, err = s.instance.GetAgentMetadata(s.ctx, agentOne, "blank")
		s.Require().NoError(err)
		s.Empty(value)
	})

	s.Run("stranger write fails NotAuthorized and leaves state untouched", func() {
		s.Require().NoError(s.instance.SetAgentMetadata(s.ctx, owner, agentOne, "k", []byte("v1")))

		err := s.instance.SetAgentMetadata(s.ctx, stranger, agentOne, "k", []byte("v2"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotAuthorized))

		value, err := s.instance.GetAgentMetadata(s.ctx, agentOne, "k")
		s.Require().NoError(err)
		s.Equal([]byte("v1"), value)
	})

	s.Run("unknown agent fails AgentNotFound", func() {
		err := s.instance.SetAgentMetadata(s.ctx, owner, domain.AgentID(99), "k", []byte("v"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeAgentNotFound))
	})
}

func (s *InstanceSuite) TestDelegatedWrites() {
	s.Run("operator grant is reusable", func() {
		op := domain.Address("operator")
		s.regR.SetOperator(owner, op, true)

		s.Require().NoError(s.instance.SetAgentMetadata(s.ctx, op, agentOne, "a", []byte("1")))
		s.Require().NoError(s.instance.SetAgentMetadata(s.ctx, op, agentOne, "b", []byte("2")))
	})

	s.Run("one-time approval works exactly once", func() {
		s.regR.Approve(owner, stranger, agentOne)

		s.Require().NoError(s.instance.SetAgentMetadata(s.ctx, stranger, agentOne, "k", []byte("first")))

		err := s.instance.SetAgentMetadata(s.ctx, stranger, agentOne, "k", []byte("second"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotAuthorized))
	})
}

func (s *InstanceSuite) TestReviews() {
	s.Run("reviews are directional and self-review is allowed", func() {
		s.Require().NoError(s.instance.SubmitReview(s.ctx, owner, agentOne, agentTwo, []byte("great")))

		value, err := s.instance.GetReview(s.ctx, agentOne, agentTwo)
		s.Require().NoError(err)
		s.Equal([]byte("great"), value)

		value, err = s.instance.GetReview(s.ctx, agentTwo, agentOne)
		s.Require().NoError(err)
		s.Empty(value, "(b,a) must be independent of (a,b)")

		s.Require().NoError(s.instance.SubmitReview(s.ctx, owner, agentOne, agentOne, []byte("self")))
	})

	s.Run("overwrite is the update path", func() {
		s.Require().NoError(s.instance.SubmitReview(s.ctx, owner, agentOne, agentTwo, []byte("good")))
		s.Require().NoError(s.instance.SubmitReview(s.ctx, owner, agentOne, agentTwo, []byte("excellent")))

		value, err := s.instance.GetReview(s.ctx, agentOne, agentTwo)
		s.Require().NoError(err)
		s.Equal([]byte("excellent"), value)
	})

	s.Run("unknown reviewer fails ReviewerNotAgent", func() {
		err := s.instance.SubmitReview(s.ctx, owner, domain.AgentID(99), agentTwo, []byte("x"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeReviewerNotAgent))
	})

	s.Run("authorization gates the reviewer, not the reviewed", func() {
		// stranger has no standing for agent 1 even though agent 2 (the
		// reviewed party) is irrelevant to the check.
		err := s.instance.SubmitReview(s.ctx, stranger, agentOne, agentTwo, []byte("x"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotAuthorized))
	})
}

func (s *InstanceSuite) TestInstanceMetadata() {
	s.Run("owner writes", func() {
		s.Require().NoError(s.instance.SetInstanceMetadata(s.ctx, owner, "purpose", []byte("agent reviews")))

		value, err := s.instance.GetInstanceMetadata(s.ctx, "purpose")
		s.Require().NoError(err)
		s.Equal([]byte("agent reviews"), value)
	})

	s.Run("non-owner is rejected even with registry standing", func() {
		op := domain.Address("operator")
		s.regR.SetOperator(owner, op, true)

		err := s.instance.SetInstanceMetadata(s.ctx, op, "purpose", []byte("hijack"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotAuthorized))
	})
}

func (s *InstanceSuite) TestRegistrySwap() {
	s.Run("owner-only", func() {
		err := s.instance.SetRegistry(s.ctx, stranger, registryR2)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotAuthorized))
	})

	s.Run("null registry is rejected", func() {
		err := s.instance.SetRegistry(s.ctx, owner, domain.NullAddress)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidRegistry))
	})

	s.Run("swap immediately changes which agents resolve", func() {
		s.Require().NoError(s.instance.SetAgentMetadata(s.ctx, owner, agentOne, "k", []byte("v1")))

		s.Require().NoError(s.instance.SetRegistry(s.ctx, owner, registryR2))
		s.Equal(registryR2, s.instance.RegistryAddress())

		// Agent 1 exists in R but not in R2: the same write now fails
		// NotFound even though it previously succeeded.
		err := s.instance.SetAgentMetadata(s.ctx, owner, agentOne, "k", []byte("v2"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeAgentNotFound))

		// Stored data is untouched by the swap.
		value, err := s.instance.GetAgentMetadata(s.ctx, agentOne, "k")
		s.Require().NoError(err)
		s.Equal([]byte("v1"), value)
	})
}

func (s *InstanceSuite) TestOwnershipLifecycle() {
	// Ownership moves as the subtests run: owner -> next -> renounced.
	// Each later subtest acts as whoever currently owns the instance.
	next := domain.Address("next-owner")

	s.Run("transfer hands over owner-gated operations", func() {
		s.Require().NoError(s.instance.TransferOwnership(s.ctx, owner, next))
		s.Equal(next, s.instance.Owner())

		err := s.instance.SetInstanceMetadata(s.ctx, owner, "k", []byte("v"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotAuthorized))

		s.Require().NoError(s.instance.SetInstanceMetadata(s.ctx, next, "k", []byte("v")))
	})

	s.Run("transfer to the null address is rejected", func() {
		err := s.instance.TransferOwnership(s.ctx, next, domain.NullAddress)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
		s.Equal(next, s.instance.Owner())
	})

	s.Run("renounce is permanent", func() {
		s.Require().NoError(s.instance.RenounceOwnership(s.ctx, next))
		s.Equal(domain.NullAddress, s.instance.Owner())

		// Nobody holds owner-gated capability anymore, including an actor
		// presenting the null address.
		err := s.instance.SetInstanceMetadata(s.ctx, next, "k", []byte("v"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotAuthorized))

		err = s.instance.SetInstanceMetadata(s.ctx, domain.NullAddress, "k", []byte("v"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotAuthorized))
	})
}

func (s *InstanceSuite) TestLifecycleGuards() {
	template := NewTemplate(s.resolver, s.stores)

	s.Run("template cannot be initialized", func() {
		err := template.Initialize(s.ctx, registryR, owner, "nope")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyInitialized))
	})

	s.Run("clone initializes exactly once", func() {
		clone, err := template.Clone(domain.Address("clone-1"))
		s.Require().NoError(err)
		s.Equal(StateUninitialized, clone.State())

		s.Require().NoError(clone.Initialize(s.ctx, registryR, owner, "Widget"))
		s.Equal(StateInitialized, clone.State())

		err = clone.Initialize(s.ctx, registryR, stranger, "Takeover")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyInitialized))
		s.Equal(owner, clone.Owner(), "failed re-init must not change the owner")
	})

	s.Run("uninitialized clone rejects gated operations", func() {
		clone, err := template.Clone(domain.Address("clone-2"))
		s.Require().NoError(err)

		err = clone.SetAgentMetadata(s.ctx, owner, agentOne, "k", []byte("v"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("only the template can be cloned", func() {
		clone, err := template.Clone(domain.Address("clone-3"))
		s.Require().NoError(err)
		_, err = clone.Clone(domain.Address("clone-of-clone"))
		s.Require().Error(err)
	})
}

func (s *InstanceSuite) TestInitializeDisplayName() {
	template := NewTemplate(s.resolver, s.stores)

	s.Run("non-empty name lands under the reserved key", func() {
		clone, err := template.Clone(domain.Address("named"))
		s.Require().NoError(err)
		s.Require().NoError(clone.Initialize(s.ctx, registryR, owner, "Widget"))

		value, err := clone.GetInstanceMetadata(s.ctx, NameKey)
		s.Require().NoError(err)
		s.Equal([]byte("Widget"), value)
	})

	s.Run("empty name is a no-op, not an error", func() {
		clone, err := template.Clone(domain.Address("unnamed"))
		s.Require().NoError(err)
		s.Require().NoError(clone.Initialize(s.ctx, registryR, owner, ""))

		value, err := clone.GetInstanceMetadata(s.ctx, NameKey)
		s.Require().NoError(err)
		s.Empty(value)
	})

	s.Run("null registry at initialize binds the default", func() {
		clone, err := template.Clone(domain.Address("defaulted"))
		s.Require().NoError(err)
		s.Require().NoError(clone.Initialize(s.ctx, domain.NullAddress, owner, ""))
		s.Equal(registry.DefaultAddress, clone.RegistryAddress())
	})
}

// flakyStore fails its first writes, then recovers.
type flakyStore struct {
	storage.Store
	failures int
}

func (f *flakyStore) Set(ctx context.Context, ns storage.Namespace, key, value []byte) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("backend down")
	}
	return f.Store.Set(ctx, ns, key, value)
}

// TestInitializeIsAllOrNothing verifies a failed display-name write leaves
// the clone uninitialized: no owner, no state flip, and the initialization
// is retryable rather than half-committed.
func (s *InstanceSuite) TestInitializeIsAllOrNothing() {
	provider := storage.ProviderFunc(func(domain.Address) storage.Store {
		return &flakyStore{Store: storage.NewInMemory(), failures: 1}
	})
	template := NewTemplate(s.resolver, provider)
	clone, err := template.Clone(domain.Address("flaky"))
	s.Require().NoError(err)

	err = clone.Initialize(s.ctx, registryR, owner, "Widget")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.Equal(StateUninitialized, clone.State())
	s.Equal(domain.NullAddress, clone.Owner())

	// The failure did not consume the one-shot initialization.
	s.Require().NoError(clone.Initialize(s.ctx, registryR, owner, "Widget"))
	s.Equal(StateInitialized, clone.State())
	s.Equal(owner, clone.Owner())

	value, err := clone.GetInstanceMetadata(s.ctx, NameKey)
	s.Require().NoError(err)
	s.Equal([]byte("Widget"), value)
}

func (s *InstanceSuite) TestCapabilities() {
	for _, capability := range []Capability{
		CapabilityAgentMetadata,
		CapabilityInstanceMetadata,
		CapabilityReviews,
		CapabilityInstanceOps,
	} {
		s.True(s.instance.Supports(capability), "expected support for %s", capability)
	}
	s.False(s.instance.Supports(Capability("time-travel")))
}

// TestInstanceIsolation verifies writes to one instance are never observable
// through another, even for identical ids and keys.
func (s *InstanceSuite) TestInstanceIsolation() {
	other, err := New(domain.Address("instance-2"), owner, registryR, s.resolver, s.stores)
	s.Require().NoError(err)

	s.Require().NoError(s.instance.SetAgentMetadata(s.ctx, owner, agentOne, "k", []byte("mine")))
	s.Require().NoError(s.instance.SubmitReview(s.ctx, owner, agentOne, agentTwo, []byte("review")))
	s.Require().NoError(s.instance.SetInstanceMetadata(s.ctx, owner, "k", []byte("meta")))

	value, err := other.GetAgentMetadata(s.ctx, agentOne, "k")
	s.Require().NoError(err)
	s.Empty(value)

	value, err = other.GetReview(s.ctx, agentOne, agentTwo)
	s.Require().NoError(err)
	s.Empty(value)

	value, err = other.GetInstanceMetadata(s.ctx, "k")
	s.Require().NoError(err)
	s.Empty(value)
}
