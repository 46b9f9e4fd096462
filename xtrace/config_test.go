package xtrace

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Config", func() {
	unsetEnv := func() {
		for _, name := range []string{
			EnvShowArguments, EnvHideReturns, EnvDescribeValues,
			EnvIncludeProperties, EnvInclude, EnvExclude,
			EnvExcludeTypes, EnvVerbose,
		} {
			os.Unsetenv(name)
		}
	}

	BeforeEach(func() {
		unsetEnv()
		DeferCleanup(unsetEnv)
	})

	It("should start from the defaults", func() {
		cfg, err := ConfigFromEnv(filepath.Join(GinkgoT().TempDir(), "none"))

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg).To(Equal(DefaultConfig()))
	})

	It("should read the environment", func() {
		os.Setenv(EnvShowArguments, "false")
		os.Setenv(EnvHideReturns, "1")
		os.Setenv(EnvExclude, "^debug")

		cfg, err := ConfigFromEnv(filepath.Join(GinkgoT().TempDir(), "none"))

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.ShowArguments).To(BeFalse())
		Expect(cfg.HideReturns).To(BeTrue())
		Expect(cfg.Exclude).To(Equal("^debug"))
	})

	It("should load dotenv files without overriding the environment", func() {
		path := filepath.Join(GinkgoT().TempDir(), "xtrace.env")
		Expect(os.WriteFile(path, []byte(
			"XTRACE_DESCRIBE=true\nXTRACE_INCLUDE=^res\n"), 0o600)).To(Succeed())
		os.Setenv(EnvInclude, "^area$")

		cfg, err := ConfigFromEnv(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.DescribeValues).To(BeTrue())
		Expect(cfg.Include).To(Equal("^area$"))
	})

	It("should reject malformed booleans", func() {
		os.Setenv(EnvVerbose, "loud")

		_, err := ConfigFromEnv(filepath.Join(GinkgoT().TempDir(), "none"))

		Expect(err).To(MatchError(ContainSubstring(EnvVerbose)))
	})

	It("should leave the configuration alone on an invalid pattern", func() {
		tracer := newWidgetWorld().newTracer(new(bytes.Buffer))
		cfg := DefaultConfig()
		cfg.Exclude = "("

		Expect(tracer.Configure(cfg)).NotTo(Succeed())
		Expect(tracer.Config()).To(Equal(DefaultConfig()))
	})

	It("should refuse to build with an invalid pattern", func() {
		cfg := DefaultConfig()
		cfg.ExcludeTypes = "["

		Expect(func() {
			MakeBuilder().WithConfig(cfg).Build()
		}).To(Panic())
	})

	It("should apply toggles to later calls", func() {
		tracer := newWidgetWorld().newTracer(new(bytes.Buffer))

		tracer.HideReturns(true)
		tracer.DescribeValues(true)
		tracer.IncludeProperties(true)

		cfg := tracer.Config()
		Expect(cfg.HideReturns).To(BeTrue())
		Expect(cfg.DescribeValues).To(BeTrue())
		Expect(cfg.IncludeProperties).To(BeTrue())
		Expect(cfg.ShowArguments).To(BeTrue())
	})
})
