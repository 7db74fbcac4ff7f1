package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"telpy/internal/config"
	"telpy/internal/session"
)

var _ = Describe("Load", func() {
	var dir string

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
		return path
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("overrides only the keys a file sets", func() {
		path := write("config.yml", `
target:
  host: router.lab
session:
  quietInterval: 250ms
`)
		cfg, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())

		Expect(cfg.Target.Host).To(Equal("router.lab"))
		Expect(cfg.Target.Port).To(Equal(23))
		Expect(cfg.Session.QuietInterval).To(Equal(250 * time.Millisecond))
		Expect(cfg.Session.LoginTimeout).To(Equal(session.DefaultLoginTimeout))
		Expect(cfg.LoadedFiles).To(ConsistOf(path))
	})

	It("merges included files before the including file", func() {
		write("base.yml", `
target:
  host: base.lab
  username: admin
`)
		path := write("config.yml", `
include: [base.yml]
target:
  host: override.lab
`)
		cfg, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Target.Host).To(Equal("override.lab"))
		Expect(cfg.Target.Username).To(Equal("admin"))
		Expect(cfg.LoadedFiles).To(HaveLen(2))
	})

	It("survives include cycles", func() {
		write("a.yml", "include: [b.yml]\n")
		path := write("b.yml", "include: [a.yml]\n")

		cfg, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.LoadedFiles).To(HaveLen(2))
	})

	It("expands environment variables", func() {
		GinkgoT().Setenv("TELPY_TEST_PASSWORD", "s3cret")
		path := write("config.yml", "target:\n  password: ${TELPY_TEST_PASSWORD}\n")

		cfg, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Target.Password).To(Equal("s3cret"))
	})

	It("rejects invalid values", func() {
		path := write("config.yml", "session:\n  loginTimeout: 0s\n")

		_, err := config.Load(path)
		Expect(err).To(MatchError(ContainSubstring("loginTimeout")))
	})

	It("reports a missing include", func() {
		path := write("config.yml", "include: [missing.yml]\n")

		_, err := config.Load(path)
		Expect(err).To(MatchError(ContainSubstring("failed to load included config")))
	})

	It("loads the embedded default file", func() {
		GinkgoT().Setenv("TELPY_PASSWORD", "")
		path := write("config.yml", string(config.DefaultYAML))

		cfg, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Session.LineTerminator).To(Equal("\r\n"))
		Expect(cfg.ToSession()).To(Equal(session.DefaultConfig()))
	})
})
