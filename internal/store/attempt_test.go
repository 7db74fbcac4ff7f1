package store_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"telpy/internal/store"
)

var _ = Describe("Attempt history", func() {
	var db *store.Store

	BeforeEach(func() {
		var err error
		db, err = store.New(":memory:", true)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(db.Close()).To(Succeed())
	})

	record := func(host, outcome string) {
		Expect(db.RecordAttempt(&store.Attempt{
			Host:     host,
			Username: "bob",
			Outcome:  outcome,
			Duration: 250 * time.Millisecond,
		})).To(Succeed())
	}

	Describe("RecentAttempts", func() {
		BeforeEach(func() {
			record("router.lab:23", "FAILURE")
			record("switch.lab:23", "SUCCESS")
			record("router.lab:23", "SUCCESS")
		})

		It("returns the newest attempts first", func() {
			attempts, err := db.RecentAttempts("", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(attempts).To(HaveLen(3))
			Expect(attempts[0].Host).To(Equal("router.lab:23"))
			Expect(attempts[0].Outcome).To(Equal("SUCCESS"))
			Expect(attempts[2].Outcome).To(Equal("FAILURE"))
		})

		It("filters by host and honours the limit", func() {
			attempts, err := db.RecentAttempts("router.lab:23", 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(attempts).To(HaveLen(1))
			Expect(attempts[0].Outcome).To(Equal("SUCCESS"))
			Expect(attempts[0].Duration).To(Equal(250 * time.Millisecond))
		})
	})

	Describe("PruneBefore", func() {
		It("removes only older attempts", func() {
			record("router.lab:23", "SUCCESS")

			removed, err := db.PruneBefore(time.Now().Add(-time.Hour))
			Expect(err).NotTo(HaveOccurred())
			Expect(removed).To(BeZero())

			removed, err = db.PruneBefore(time.Now().Add(time.Hour))
			Expect(err).NotTo(HaveOccurred())
			Expect(removed).To(Equal(int64(1)))

			attempts, err := db.RecentAttempts("", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(attempts).To(BeEmpty())
		})
	})
})
