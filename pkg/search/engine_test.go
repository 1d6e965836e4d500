package search_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/recallhq/recall/pkg/knowledge"
	"github.com/recallhq/recall/pkg/search"
	"github.com/recallhq/recall/pkg/store/inmemory"
	testutils "github.com/recallhq/recall/pkg/utils/test"
)

func TestSearch(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Search Suite")
}

var _ = Describe("Engine.Find", func() {
	var (
		ctx      context.Context
		driver   *inmemory.Driver
		embedder *testutils.MockEmbedder
		engine   *search.Engine
	)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	memory := func(id, content string, age time.Duration, tags ...string) *knowledge.Memory {
		m := testutils.NewTestMemory("alice", content, tags...)
		m.ID = id
		m.CreatedAt = base.Add(-age)
		m.UpdatedAt = m.CreatedAt
		m.Embedding = []float32{0.1, 0.2, 0.3}
		return m
	}

	BeforeEach(func() {
		ctx = context.Background()
		driver = inmemory.NewDriver()
		embedder = testutils.NewMockEmbedder()
		engine = search.NewEngine(search.Config{
			Store:    driver,
			Embedder: embedder,
			Logger:   zap.NewNop(),
		})
	})

	It("returns empty results for an empty query", func() {
		results, err := engine.Find(ctx, "   ", "alice", search.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(results.Combined).To(BeEmpty())
		Expect(results.Semantic).To(BeEmpty())
		Expect(results.Text).To(BeEmpty())
		Expect(results.Tags).To(BeEmpty())
	})

	It("finds items by text containment, case-insensitively", func() {
		Expect(driver.PutMemory(ctx, memory("m1", "Deploy checklist for the API", time.Hour))).To(Succeed())
		Expect(driver.PutMemory(ctx, memory("m2", "grocery list", 2*time.Hour))).To(Succeed())

		results, err := engine.Find(ctx, "deploy", "alice", search.Options{Methods: []search.Method{search.MethodText}})
		Expect(err).NotTo(HaveOccurred())
		Expect(results.Text).To(HaveLen(1))
		Expect(results.Text[0].Item.ItemID()).To(Equal("m1"))
		Expect(results.Semantic).To(BeEmpty())
		Expect(results.Tags).To(BeEmpty())
	})

	It("finds items by tag overlap from query tokens", func() {
		Expect(driver.PutMemory(ctx, memory("m1", "something else entirely", time.Hour, "deploy"))).To(Succeed())

		results, err := engine.Find(ctx, "the deploy runbook", "alice", search.Options{Methods: []search.Method{search.MethodTags}})
		Expect(err).NotTo(HaveOccurred())
		Expect(results.Tags).To(HaveLen(1))
		Expect(results.Tags[0].Item.ItemID()).To(Equal("m1"))
	})

	It("deduplicates the combined bucket by item id", func() {
		// Matches text, tags, and semantic at once.
		Expect(driver.PutMemory(ctx, memory("m1", "deploy notes", time.Hour, "deploy"))).To(Succeed())

		results, err := engine.Find(ctx, "deploy", "alice", search.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(results.Combined).To(HaveLen(1))
		Expect(results.Combined[0].Item.ItemID()).To(Equal("m1"))
	})

	It("orders the combined bucket by recency descending", func() {
		Expect(driver.PutMemory(ctx, memory("older", "deploy history", 48*time.Hour))).To(Succeed())
		Expect(driver.PutMemory(ctx, memory("newer", "deploy plan", time.Hour))).To(Succeed())

		results, err := engine.Find(ctx, "deploy", "alice", search.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(results.Combined).To(HaveLen(2))
		Expect(results.Combined[0].Item.ItemID()).To(Equal("newer"))
		Expect(results.Combined[1].Item.ItemID()).To(Equal("older"))
	})

	It("scopes results to the owner", func() {
		other := testutils.NewTestMemory("bob", "deploy secrets")
		Expect(driver.PutMemory(ctx, other)).To(Succeed())

		results, err := engine.Find(ctx, "deploy", "alice", search.Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(results.Combined).To(BeEmpty())
	})

	It("truncates the combined bucket to the limit", func() {
		for _, id := range []string{"m1", "m2", "m3"} {
			Expect(driver.PutMemory(ctx, memory(id, "deploy "+id, time.Hour))).To(Succeed())
		}

		results, err := engine.Find(ctx, "deploy", "alice", search.Options{Limit: 2})
		Expect(err).NotTo(HaveOccurred())
		Expect(results.Combined).To(HaveLen(2))
	})

	Describe("semantic method", func() {
		It("returns nearest items with similarity derived from distance", func() {
			Expect(driver.PutMemory(ctx, memory("m1", "tuning the database", time.Hour))).To(Succeed())

			results, err := engine.Find(ctx, "database", "alice", search.Options{Methods: []search.Method{search.MethodSemantic}})
			Expect(err).NotTo(HaveOccurred())
			Expect(results.Semantic).To(HaveLen(1))
			// Identical vectors: distance 0, similarity 1.
			Expect(results.Semantic[0].Distance).To(BeNumerically("~", 0, 1e-6))
			Expect(results.Semantic[0].Similarity).To(BeNumerically("~", 1, 1e-6))
		})

		It("degrades to text matching when embedding fails", func() {
			embedder.FailAll = true
			Expect(driver.PutMemory(ctx, memory("m1", "database tuning notes", time.Hour))).To(Succeed())

			results, err := engine.Find(ctx, "database", "alice", search.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(results.Semantic).To(HaveLen(1))
			Expect(results.Semantic[0].Item.ItemID()).To(Equal("m1"))
			Expect(results.Semantic[0].Similarity).To(Equal(0.5))
			Expect(results.Combined).To(HaveLen(1))
		})
	})
})

var _ = Describe("QueryTokens", func() {
	It("drops stop words and short tokens", func() {
		Expect(search.QueryTokens("the deploy of an api")).To(Equal([]string{"deploy", "api"}))
	})

	It("deduplicates tokens", func() {
		Expect(search.QueryTokens("deploy deploy DEPLOY")).To(Equal([]string{"deploy"}))
	})

	It("returns nothing for an all-stop-word query", func() {
		Expect(search.QueryTokens("the and for")).To(BeEmpty())
	})
})
