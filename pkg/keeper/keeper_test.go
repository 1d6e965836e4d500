package keeper_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/recallhq/recall/pkg/clock"
	"github.com/recallhq/recall/pkg/dedupe"
	"github.com/recallhq/recall/pkg/keeper"
	"github.com/recallhq/recall/pkg/knowledge"
	"github.com/recallhq/recall/pkg/oracle"
	"github.com/recallhq/recall/pkg/search"
	"github.com/recallhq/recall/pkg/store/inmemory"
	testutils "github.com/recallhq/recall/pkg/utils/test"
)

func TestKeeper(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Keeper Suite")
}

var _ = Describe("Service", func() {
	var (
		ctx     context.Context
		driver  *inmemory.Driver
		service *keeper.Service
		now     time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = inmemory.NewDriver()
		now = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

		embedder := testutils.NewMockEmbedder()
		fake := clock.NewFake(now)
		engine := search.NewEngine(search.Config{
			Store:    driver,
			Embedder: embedder,
			Logger:   zap.NewNop(),
		})
		arbiter := dedupe.NewArbiter(dedupe.Config{
			Store:    driver,
			Engine:   engine,
			Oracle:   testutils.NewMockOracle(&oracle.Verdict{Action: oracle.ActionCreate}),
			Embedder: embedder,
			Clock:    fake,
			Logger:   zap.NewNop(),
		})
		service = keeper.NewService(keeper.Config{
			Store:    driver,
			Engine:   engine,
			Arbiter:  arbiter,
			Embedder: embedder,
			Clock:    fake,
			Logger:   zap.NewNop(),
		})
	})

	Describe("CreateReminder", func() {
		It("stores a future one-shot as given", func() {
			when := now.Add(2 * time.Hour)

			r, err := service.CreateReminder(ctx, keeper.ReminderInput{
				OwnerID:      "alice",
				Content:      "call Sam",
				ScheduledFor: when,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(r.ScheduledFor).To(Equal(when))
			Expect(r.IsRecurring).To(BeFalse())
			Expect(r.Embedding).NotTo(BeEmpty())

			stored, err := driver.GetReminder(ctx, r.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Content).To(Equal("call Sam"))
		})

		It("rejects a past one-shot", func() {
			_, err := service.CreateReminder(ctx, keeper.ReminderInput{
				OwnerID:      "alice",
				Content:      "too late",
				ScheduledFor: now.Add(-time.Hour),
			})
			Expect(knowledge.IsValidation(err)).To(BeTrue())
		})

		It("auto-advances a recurring reminder anchored in the past", func() {
			anchor := now.Add(-30 * time.Hour)

			r, err := service.CreateReminder(ctx, keeper.ReminderInput{
				OwnerID:      "alice",
				Content:      "daily sync",
				ScheduledFor: anchor,
				Recurrence:   knowledge.Recurrence{Type: knowledge.RecurrenceDaily, Interval: 1},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(r.ScheduledFor.After(now)).To(BeTrue())
			Expect(r.ScheduledFor).To(Equal(anchor.Add(48 * time.Hour)))
			Expect(r.Recurrence.Anchor).To(Equal(anchor))
		})

		It("requires an owner and content", func() {
			_, err := service.CreateReminder(ctx, keeper.ReminderInput{
				Content:      "no owner",
				ScheduledFor: now.Add(time.Hour),
			})
			Expect(knowledge.IsValidation(err)).To(BeTrue())

			_, err = service.CreateReminder(ctx, keeper.ReminderInput{
				OwnerID:      "alice",
				Content:      "   ",
				ScheduledFor: now.Add(time.Hour),
			})
			Expect(knowledge.IsValidation(err)).To(BeTrue())
		})

		It("rejects an unknown recurrence type", func() {
			_, err := service.CreateReminder(ctx, keeper.ReminderInput{
				OwnerID:      "alice",
				Content:      "odd rule",
				ScheduledFor: now.Add(time.Hour),
				Recurrence:   knowledge.Recurrence{Type: knowledge.RecurrenceType("hourly"), Interval: 1},
			})
			Expect(knowledge.IsConfiguration(err)).To(BeTrue())
		})

		It("rejects a recurring reminder with a zero interval", func() {
			_, err := service.CreateReminder(ctx, keeper.ReminderInput{
				OwnerID:      "alice",
				Content:      "no interval",
				ScheduledFor: now.Add(time.Hour),
				Recurrence:   knowledge.Recurrence{Type: knowledge.RecurrenceWeekly},
			})
			Expect(knowledge.IsValidation(err)).To(BeTrue())
		})

		It("normalizes tags", func() {
			r, err := service.CreateReminder(ctx, keeper.ReminderInput{
				OwnerID:      "alice",
				Content:      "tagged",
				Tags:         []string{"Standup ", "standup"},
				ScheduledFor: now.Add(time.Hour),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Tags).To(Equal([]string{"standup"}))
		})
	})

	Describe("CancelReminder", func() {
		var reminder *knowledge.Reminder

		BeforeEach(func() {
			var err error
			reminder, err = service.CreateReminder(ctx, keeper.ReminderInput{
				OwnerID:      "alice",
				Content:      "cancel me",
				ScheduledFor: now.Add(time.Hour),
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("marks the reminder completed", func() {
			r, err := service.CancelReminder(ctx, "alice", reminder.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.IsCompleted).To(BeTrue())
			Expect(r.CompletedAt).NotTo(BeNil())

			stored, err := driver.GetReminder(ctx, reminder.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.IsCompleted).To(BeTrue())
		})

		It("is idempotent", func() {
			_, err := service.CancelReminder(ctx, "alice", reminder.ID)
			Expect(err).NotTo(HaveOccurred())

			again, err := service.CancelReminder(ctx, "alice", reminder.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(again.IsCompleted).To(BeTrue())
		})

		It("treats a foreign reminder as absent", func() {
			_, err := service.CancelReminder(ctx, "mallory", reminder.ID)
			Expect(knowledge.IsNotFound(err)).To(BeTrue())
		})

		It("returns not found for an unknown id", func() {
			_, err := service.CancelReminder(ctx, "alice", "nope")
			Expect(knowledge.IsNotFound(err)).To(BeTrue())
		})
	})

	Describe("CreateMemory", func() {
		It("routes through the arbiter", func() {
			outcome, err := service.CreateMemory(ctx, keeper.MemoryInput{
				OwnerID: "alice",
				Content: "remember this",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.Action).To(Equal(dedupe.ActionCreated))
			Expect(driver.CountMemories()).To(Equal(1))
		})

		It("rejects an ownerless candidate", func() {
			_, err := service.CreateMemory(ctx, keeper.MemoryInput{Content: "orphan"})
			Expect(knowledge.IsValidation(err)).To(BeTrue())
		})
	})

	Describe("Search", func() {
		It("requires an owner", func() {
			_, err := service.Search(ctx, "anything", "", search.Options{})
			Expect(knowledge.IsValidation(err)).To(BeTrue())
		})

		It("finds stored items", func() {
			_, err := service.CreateMemory(ctx, keeper.MemoryInput{
				OwnerID: "alice",
				Content: "the deploy runbook lives in docs",
			})
			Expect(err).NotTo(HaveOccurred())

			results, err := service.Search(ctx, "runbook", "alice", search.Options{})
			Expect(err).NotTo(HaveOccurred())
			Expect(results.Combined).NotTo(BeEmpty())
		})
	})

	Describe("GetMemory", func() {
		It("scopes to the owner", func() {
			outcome, err := service.CreateMemory(ctx, keeper.MemoryInput{
				OwnerID: "alice",
				Content: "private note",
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.GetMemory(ctx, "mallory", outcome.ItemID)
			Expect(knowledge.IsNotFound(err)).To(BeTrue())

			m, err := service.GetMemory(ctx, "alice", outcome.ItemID)
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Content).To(Equal("private note"))
		})
	})

	Describe("ListReminders", func() {
		It("returns the owner's reminders newest schedule first", func() {
			early, err := service.CreateReminder(ctx, keeper.ReminderInput{
				OwnerID: "alice", Content: "early", ScheduledFor: now.Add(time.Hour),
			})
			Expect(err).NotTo(HaveOccurred())
			late, err := service.CreateReminder(ctx, keeper.ReminderInput{
				OwnerID: "alice", Content: "late", ScheduledFor: now.Add(3 * time.Hour),
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.CreateReminder(ctx, keeper.ReminderInput{
				OwnerID: "bob", Content: "other", ScheduledFor: now.Add(2 * time.Hour),
			})
			Expect(err).NotTo(HaveOccurred())

			reminders, err := service.ListReminders(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(reminders).To(HaveLen(2))
			Expect(reminders[0].ID).To(Equal(late.ID))
			Expect(reminders[1].ID).To(Equal(early.ID))
		})
	})

	Describe("event publishing", func() {
		var (
			publisher *testutils.MockPublisher
			mock      *testutils.MockOracle
		)

		BeforeEach(func() {
			publisher = testutils.NewMockPublisher()
			mock = testutils.NewMockOracle(&oracle.Verdict{Action: oracle.ActionCreate})

			embedder := testutils.NewMockEmbedder()
			fake := clock.NewFake(now)
			engine := search.NewEngine(search.Config{
				Store:    driver,
				Embedder: embedder,
				Logger:   zap.NewNop(),
			})
			arbiter := dedupe.NewArbiter(dedupe.Config{
				Store:    driver,
				Engine:   engine,
				Oracle:   mock,
				Embedder: embedder,
				Clock:    fake,
				Logger:   zap.NewNop(),
			})
			service = keeper.NewService(keeper.Config{
				Store:     driver,
				Engine:    engine,
				Arbiter:   arbiter,
				Embedder:  embedder,
				Publisher: publisher,
				Clock:     fake,
				Logger:    zap.NewNop(),
			})
		})

		It("identifies the stored memory in its created event", func() {
			outcome, err := service.CreateMemory(ctx, keeper.MemoryInput{
				OwnerID: "alice",
				Content: "the deploy runbook",
				Tags:    []string{"deploy"},
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(publisher.Items).To(HaveLen(1))
			ev := publisher.Items[0]
			Expect(ev.ItemID).NotTo(BeEmpty())
			Expect(ev.ItemID).To(Equal(outcome.ItemID))
			Expect(ev.ItemKind).To(Equal("memory"))
			Expect(ev.Action).To(Equal("created"))
			Expect(ev.OwnerID).To(Equal("alice"))
		})

		It("carries the merged item's id and tags after an update", func() {
			first, err := service.CreateMemory(ctx, keeper.MemoryInput{
				OwnerID: "alice",
				Content: "the deploy runbook",
				Tags:    []string{"deploy"},
			})
			Expect(err).NotTo(HaveOccurred())

			mock.Verdict = &oracle.Verdict{Action: oracle.ActionUpdate, TargetID: first.ItemID}
			outcome, err := service.CreateMemory(ctx, keeper.MemoryInput{
				OwnerID: "alice",
				Content: "the deploy runbook moved",
				Tags:    []string{"runbook"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.Action).To(Equal(dedupe.ActionUpdated))

			Expect(publisher.Items).To(HaveLen(2))
			ev := publisher.Items[1]
			Expect(ev.ItemID).To(Equal(first.ItemID))
			Expect(ev.Action).To(Equal("updated"))
			Expect(ev.Tags).To(ConsistOf("deploy", "runbook"))
		})

		It("publishes nothing for a skipped candidate", func() {
			first, err := service.CreateMemory(ctx, keeper.MemoryInput{
				OwnerID: "alice",
				Content: "the deploy runbook",
			})
			Expect(err).NotTo(HaveOccurred())

			mock.Verdict = &oracle.Verdict{Action: oracle.ActionSkip, TargetID: first.ItemID}
			outcome, err := service.CreateMemory(ctx, keeper.MemoryInput{
				OwnerID: "alice",
				Content: "the deploy runbook",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.Action).To(Equal(dedupe.ActionSkipped))
			Expect(publisher.Items).To(HaveLen(1))
		})

		It("identifies the reminder in its created event", func() {
			r, err := service.CreateReminder(ctx, keeper.ReminderInput{
				OwnerID:      "alice",
				Content:      "call Sam",
				ScheduledFor: now.Add(time.Hour),
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(publisher.Items).To(HaveLen(1))
			Expect(publisher.Items[0].ItemID).To(Equal(r.ID))
			Expect(publisher.Items[0].ItemKind).To(Equal("reminder"))
		})
	})
})
