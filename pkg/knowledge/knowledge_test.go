package knowledge_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/recallhq/recall/pkg/knowledge"
)

func TestKnowledge(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Knowledge Suite")
}

var _ = Describe("NormalizeTag", func() {
	It("lowercases and trims", func() {
		Expect(knowledge.NormalizeTag("  Deploy  ")).To(Equal("deploy"))
	})

	It("strips punctuation", func() {
		Expect(knowledge.NormalizeTag("c++!")).To(Equal("c"))
	})

	It("keeps inner separators as dashes", func() {
		Expect(knowledge.NormalizeTag("dark mode")).To(Equal("dark-mode"))
		Expect(knowledge.NormalizeTag("dark_mode")).To(Equal("dark-mode"))
	})

	It("drops single-rune results", func() {
		Expect(knowledge.NormalizeTag("x")).To(Equal(""))
		Expect(knowledge.NormalizeTag("!")).To(Equal(""))
	})

	It("counts runes, not bytes, for the single-rune check", func() {
		Expect(knowledge.NormalizeTag("é")).To(Equal(""))
		Expect(knowledge.NormalizeTag("éé")).To(Equal("éé"))
	})
})

var _ = Describe("NormalizeTags", func() {
	It("deduplicates after normalization", func() {
		Expect(knowledge.NormalizeTags([]string{"Deploy", "deploy", "DEPLOY!"})).
			To(Equal([]string{"deploy"}))
	})

	It("sorts the result", func() {
		Expect(knowledge.NormalizeTags([]string{"zulu", "alpha", "mike"})).
			To(Equal([]string{"alpha", "mike", "zulu"}))
	})

	It("drops empty results", func() {
		Expect(knowledge.NormalizeTags([]string{"", "  ", "ok"})).
			To(Equal([]string{"ok"}))
	})
})

var _ = Describe("UnionTags", func() {
	It("merges and deduplicates two sets", func() {
		Expect(knowledge.UnionTags([]string{"api", "deploy"}, []string{"deploy", "infra"})).
			To(Equal([]string{"api", "deploy", "infra"}))
	})
})

var _ = Describe("Item view", func() {
	It("stamps a reminder with its scheduled time", func() {
		when := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
		r := &knowledge.Reminder{ID: "r1", ScheduledFor: when}

		var it knowledge.Item = r
		Expect(it.ItemID()).To(Equal("r1"))
		Expect(it.Stamp()).To(Equal(when))
	})

	It("stamps a memory with its creation time", func() {
		created := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
		m := &knowledge.Memory{ID: "m1", CreatedAt: created}

		var it knowledge.Item = m
		Expect(it.Stamp()).To(Equal(created))
	})
})

var _ = Describe("error taxonomy", func() {
	It("classifies each error kind", func() {
		Expect(knowledge.IsValidation(knowledge.ValidationError{Reason: "x"})).To(BeTrue())
		Expect(knowledge.IsNotFound(knowledge.NotFoundError{Kind: "memory", ID: "m1"})).To(BeTrue())
		Expect(knowledge.IsConfiguration(knowledge.ConfigurationError{Reason: "x"})).To(BeTrue())
		Expect(knowledge.IsDependency(knowledge.DependencyError{Dependency: "oracle"})).To(BeTrue())

		Expect(knowledge.IsNotFound(knowledge.ValidationError{Reason: "x"})).To(BeFalse())
	})
})
