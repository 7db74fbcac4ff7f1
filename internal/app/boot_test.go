package app_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"telpy/internal/app"
	"telpy/internal/store"
)

var _ = Describe("Boot", func() {
	It("opens the history store under the configured data path", func() {
		dir := GinkgoT().TempDir()
		data := filepath.Join(dir, "state")
		path := filepath.Join(dir, "telpy.yml")
		Expect(os.WriteFile(path, []byte("paths:\n  data: "+data+"\n"), 0o644)).To(Succeed())

		a, err := app.Boot(path, true)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(a.Close)

		Expect(a.Config.Target.Port).To(Equal(23))
		Expect(a.Store.RecordAttempt(&store.Attempt{Host: "router.lab:23", Outcome: "SUCCESS"})).To(Succeed())
		Expect(filepath.Join(data, "history.sqlite3")).To(BeAnExistingFile())
	})

	It("fails on a config file that does not exist", func() {
		_, err := app.Boot(filepath.Join(GinkgoT().TempDir(), "missing.yml"), true)
		Expect(err).To(MatchError(ContainSubstring("failed to load configuration")))
	})
})
