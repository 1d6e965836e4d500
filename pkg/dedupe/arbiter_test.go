package dedupe_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/recallhq/recall/pkg/clock"
	"github.com/recallhq/recall/pkg/dedupe"
	"github.com/recallhq/recall/pkg/knowledge"
	"github.com/recallhq/recall/pkg/oracle"
	"github.com/recallhq/recall/pkg/search"
	"github.com/recallhq/recall/pkg/store/inmemory"
	testutils "github.com/recallhq/recall/pkg/utils/test"
)

func TestDedupe(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Dedupe Suite")
}

var _ = Describe("Arbiter.SmartCreate", func() {
	var (
		ctx      context.Context
		driver   *inmemory.Driver
		embedder *testutils.MockEmbedder
		mock     *testutils.MockOracle
		arbiter  *dedupe.Arbiter
		now      time.Time
	)

	newArbiter := func() *dedupe.Arbiter {
		engine := search.NewEngine(search.Config{
			Store:    driver,
			Embedder: embedder,
			Logger:   zap.NewNop(),
		})
		return dedupe.NewArbiter(dedupe.Config{
			Store:    driver,
			Engine:   engine,
			Oracle:   mock,
			Embedder: embedder,
			Clock:    clock.NewFake(now),
			Logger:   zap.NewNop(),
		})
	}

	BeforeEach(func() {
		ctx = context.Background()
		driver = inmemory.NewDriver()
		embedder = testutils.NewMockEmbedder()
		mock = testutils.NewMockOracle(&oracle.Verdict{Action: oracle.ActionCreate})
		now = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
		arbiter = newArbiter()
	})

	candidate := func(content string, tags ...string) *knowledge.Memory {
		return &knowledge.Memory{
			OwnerID: "alice",
			Content: content,
			Tags:    tags,
		}
	}

	It("rejects an empty candidate", func() {
		_, err := arbiter.SmartCreate(ctx, candidate("   "))
		Expect(knowledge.IsValidation(err)).To(BeTrue())
	})

	It("rejects a candidate without an owner", func() {
		_, err := arbiter.SmartCreate(ctx, &knowledge.Memory{Content: "orphan"})
		Expect(knowledge.IsValidation(err)).To(BeTrue())
	})

	It("creates directly when the corpus has nothing similar", func() {
		outcome, err := arbiter.SmartCreate(ctx, candidate("completely new fact"))
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome.Action).To(Equal(dedupe.ActionCreated))
		Expect(outcome.ItemID).NotTo(BeEmpty())
		// The oracle is never consulted on an empty similar set.
		Expect(mock.Requests).To(BeEmpty())

		stored, err := driver.GetMemory(ctx, outcome.ItemID)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.CreatedAt).To(Equal(now))
		Expect(stored.Embedding).NotTo(BeEmpty())
	})

	It("normalizes candidate tags before storing", func() {
		outcome, err := arbiter.SmartCreate(ctx, candidate("tagged fact", "Dark Mode", "DARK-MODE"))
		Expect(err).NotTo(HaveOccurred())

		stored, err := driver.GetMemory(ctx, outcome.ItemID)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.Tags).To(Equal([]string{"dark-mode"}))
	})

	Context("with a similar memory in the corpus", func() {
		var existing *knowledge.Memory

		BeforeEach(func() {
			existing = testutils.NewTestMemory("alice", "prefers dark mode in the editor")
			existing.Embedding = []float32{0.1, 0.2, 0.3}
			Expect(driver.PutMemory(ctx, existing)).To(Succeed())
		})

		It("consults the oracle and honors a create verdict", func() {
			mock.Verdict = &oracle.Verdict{Action: oracle.ActionCreate, Reasoning: "distinct fact"}

			outcome, err := arbiter.SmartCreate(ctx, candidate("prefers dark mode on the terminal too"))
			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.Action).To(Equal(dedupe.ActionCreated))
			Expect(outcome.Reason).To(Equal("distinct fact"))
			Expect(mock.Requests).To(HaveLen(1))
			Expect(mock.Requests[0].Existing).NotTo(BeEmpty())
			Expect(driver.CountMemories()).To(Equal(2))
		})

		It("honors a skip verdict without storing anything", func() {
			mock.Verdict = &oracle.Verdict{
				Action:    oracle.ActionSkip,
				TargetID:  existing.ID,
				Reasoning: "duplicate",
			}

			outcome, err := arbiter.SmartCreate(ctx, candidate("prefers dark mode in the editor"))
			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.Action).To(Equal(dedupe.ActionSkipped))
			Expect(outcome.ItemID).To(Equal(existing.ID))
			Expect(driver.CountMemories()).To(Equal(1))
		})

		It("merges into the target on an update verdict", func() {
			mock.Verdict = &oracle.Verdict{
				Action:    oracle.ActionUpdate,
				TargetID:  existing.ID,
				Reasoning: "refines the preference",
			}

			outcome, err := arbiter.SmartCreate(ctx, candidate("prefers dark mode everywhere", "preferences"))
			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.Action).To(Equal(dedupe.ActionUpdated))
			Expect(outcome.ItemID).To(Equal(existing.ID))

			merged, err := driver.GetMemory(ctx, existing.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(merged.Content).To(ContainSubstring("prefers dark mode in the editor"))
			Expect(merged.Content).To(ContainSubstring("prefers dark mode everywhere"))
			Expect(merged.Metadata[knowledge.MetadataPreviousContent]).To(Equal("prefers dark mode in the editor"))
			Expect(merged.Tags).To(ContainElement("preferences"))
			Expect(merged.UpdatedAt).To(Equal(now))
			Expect(merged.Embedding).NotTo(BeEmpty())
		})

		It("falls back to create when the update target is missing", func() {
			mock.Verdict = &oracle.Verdict{Action: oracle.ActionUpdate, TargetID: "gone"}

			outcome, err := arbiter.SmartCreate(ctx, candidate("prefers dark mode at night"))
			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.Action).To(Equal(dedupe.ActionCreated))
			Expect(outcome.Reason).To(ContainSubstring("gone"))
			Expect(driver.CountMemories()).To(Equal(2))
		})

		It("defaults to create when the oracle is unavailable", func() {
			mock.Fail = true

			outcome, err := arbiter.SmartCreate(ctx, candidate("prefers dark mode today"))
			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.Action).To(Equal(dedupe.ActionCreated))
			Expect(outcome.Reason).To(ContainSubstring("oracle unavailable"))
			Expect(driver.CountMemories()).To(Equal(2))
		})
	})

	Describe("SmartCreateMultiple", func() {
		It("processes candidates in order and isolates failures", func() {
			candidates := []*knowledge.Memory{
				candidate("first fact"),
				{OwnerID: "alice"}, // empty content
				candidate("third fact"),
			}

			outcomes, err := arbiter.SmartCreateMultiple(ctx, candidates)
			Expect(err).To(HaveOccurred())
			Expect(outcomes).To(HaveLen(2))
			Expect(outcomes[0].Action).To(Equal(dedupe.ActionCreated))
			Expect(outcomes[1].Action).To(Equal(dedupe.ActionCreated))
			Expect(driver.CountMemories()).To(Equal(2))
		})

		It("lets a later candidate see an earlier one in its probe", func() {
			mock.Verdict = &oracle.Verdict{Action: oracle.ActionSkip, Reasoning: "duplicate of the first"}

			outcomes, err := arbiter.SmartCreateMultiple(ctx, []*knowledge.Memory{
				candidate("the deploy runbook lives in docs"),
				candidate("the deploy runbook lives in docs"),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(outcomes).To(HaveLen(2))
			Expect(outcomes[0].Action).To(Equal(dedupe.ActionCreated))
			Expect(outcomes[1].Action).To(Equal(dedupe.ActionSkipped))
		})
	})
})
