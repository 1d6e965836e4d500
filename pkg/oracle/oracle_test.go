package oracle_test

import (
	"errors"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/recallhq/recall/pkg/oracle"
)

func TestOracle(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Oracle Suite")
}

var _ = Describe("ParseVerdict", func() {
	It("parses a plain create verdict", func() {
		v, err := oracle.ParseVerdict([]byte(`{"action":"create","confidence":0.9,"reasoning":"new fact"}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(v.Action).To(Equal(oracle.ActionCreate))
		Expect(v.Confidence).To(Equal(0.9))
	})

	It("strips a fenced json block", func() {
		raw := "```json\n{\"action\":\"skip\",\"target_id\":\"m1\"}\n```"
		v, err := oracle.ParseVerdict([]byte(raw))
		Expect(err).NotTo(HaveOccurred())
		Expect(v.Action).To(Equal(oracle.ActionSkip))
		Expect(v.TargetID).To(Equal("m1"))
	})

	It("rejects an update verdict without a target", func() {
		_, err := oracle.ParseVerdict([]byte(`{"action":"update"}`))
		Expect(errors.Is(err, oracle.ErrUnparsableVerdict)).To(BeTrue())
	})

	It("rejects a skip verdict without a target", func() {
		_, err := oracle.ParseVerdict([]byte(`{"action":"skip"}`))
		Expect(errors.Is(err, oracle.ErrUnparsableVerdict)).To(BeTrue())
	})

	It("rejects an unknown action", func() {
		_, err := oracle.ParseVerdict([]byte(`{"action":"merge","target_id":"m1"}`))
		Expect(errors.Is(err, oracle.ErrUnparsableVerdict)).To(BeTrue())
	})

	It("rejects non-json output", func() {
		_, err := oracle.ParseVerdict([]byte("I think you should create it"))
		Expect(errors.Is(err, oracle.ErrUnparsableVerdict)).To(BeTrue())
	})
})
