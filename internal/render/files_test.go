package render_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/backup-config/internal/assembler"
	"github.com/angeloszaimis/backup-config/internal/render"
)

var _ = Describe("Files", func() {
	var (
		tempDir string
		out     render.Output
	)

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "render-test-*")
		Expect(err).NotTo(HaveOccurred())

		renderer := render.New(render.Options{})
		out, err = renderer.Render(context.Background(), render.Request{
			Job:   assembler.ServerJob,
			Input: mustInput(serverInput),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
	})

	Describe("Write", func() {
		It("should write every file under the job directory", func() {
			Expect(render.Write(tempDir, out)).To(Succeed())

			for _, f := range out.Files {
				content, err := os.ReadFile(filepath.Join(tempDir, assembler.ServerJob, f.Name))
				Expect(err).NotTo(HaveOccurred())
				Expect(content).To(Equal(f.Content))
			}

			entries, err := os.ReadDir(filepath.Join(tempDir, assembler.ServerJob))
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(len(out.Files)))
		})
	})

	Describe("Check", func() {
		It("should report no drift right after writing", func() {
			Expect(render.Write(tempDir, out)).To(Succeed())

			drifts, err := render.Check(tempDir, out)
			Expect(err).NotTo(HaveOccurred())
			Expect(drifts).To(BeEmpty())
		})

		It("should report missing files", func() {
			drifts, err := render.Check(tempDir, out)
			Expect(err).NotTo(HaveOccurred())
			Expect(drifts).To(HaveLen(len(out.Files)))
		})

		It("should report changed values", func() {
			Expect(render.Write(tempDir, out)).To(Succeed())

			path := filepath.Join(tempDir, assembler.ServerJob, render.ServerConfigFile)
			content, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := assembler.Unmarshal[assembler.ServerConfig](content)
			Expect(err).NotTo(HaveOccurred())
			cfg.TLS.ServerName = "stale-server-name"
			stale, err := assembler.Marshal(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(os.WriteFile(path, stale, 0o640)).To(Succeed())

			drifts, err := render.Check(tempDir, out)
			Expect(err).NotTo(HaveOccurred())
			Expect(drifts).To(HaveLen(1))
			Expect(drifts[0].File).To(Equal(path))
			Expect(drifts[0].Diff).To(ContainSubstring("stale-server-name"))
		})
	})

	Describe("DiffDocuments", func() {
		It("should ignore key order and formatting", func() {
			diff, err := render.DiffDocuments([]byte("a: 1\nb: [x, y]\n"), []byte("b:\n  - x\n  - y\na: 1\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(diff).To(BeEmpty())
		})

		It("should fail on malformed documents", func() {
			_, err := render.DiffDocuments([]byte("a: [1"), []byte("a: 1"))
			Expect(err).To(HaveOccurred())
		})
	})
})
