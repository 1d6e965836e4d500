package chargram_test

import (
	"context"
	"math"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/recallhq/recall/pkg/embeddings/chargram"
)

func TestChargram(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Chargram Suite")
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

var _ = Describe("Embedder", func() {
	var (
		ctx      context.Context
		embedder *chargram.Embedder
	)

	BeforeEach(func() {
		ctx = context.Background()
		embedder = chargram.NewEmbedder(chargram.Config{})
	})

	It("emits vectors of the configured width", func() {
		vec, err := embedder.Embed(ctx, "hello world")
		Expect(err).NotTo(HaveOccurred())
		Expect(vec).To(HaveLen(chargram.DefaultDimensions))

		small := chargram.NewEmbedder(chargram.Config{Dimensions: 64})
		vec, err = small.Embed(ctx, "hello world")
		Expect(err).NotTo(HaveOccurred())
		Expect(vec).To(HaveLen(64))
	})

	It("is deterministic", func() {
		a, err := embedder.Embed(ctx, "the deploy runbook")
		Expect(err).NotTo(HaveOccurred())
		b, err := embedder.Embed(ctx, "the deploy runbook")
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(Equal(b))
	})

	It("returns a zero vector for empty text", func() {
		vec, err := embedder.Embed(ctx, "   ")
		Expect(err).NotTo(HaveOccurred())
		for _, v := range vec {
			Expect(v).To(BeZero())
		}
	})

	It("normalizes non-empty vectors to unit length", func() {
		vec, err := embedder.Embed(ctx, "normalize me")
		Expect(err).NotTo(HaveOccurred())

		var sum float64
		for _, v := range vec {
			sum += float64(v) * float64(v)
		}
		Expect(sum).To(BeNumerically("~", 1.0, 1e-5))
	})

	It("scores related texts above unrelated ones", func() {
		query, _ := embedder.Embed(ctx, "deploy the api service")
		related, _ := embedder.Embed(ctx, "api service deploy checklist")
		unrelated, _ := embedder.Embed(ctx, "grandma's cookie recipe")

		Expect(cosine(query, related)).To(BeNumerically(">", cosine(query, unrelated)))
	})
})
