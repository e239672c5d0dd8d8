package render_test

import (
	"context"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/backup-config/internal/assembler"
	"github.com/angeloszaimis/backup-config/internal/endpoints"
	"github.com/angeloszaimis/backup-config/internal/metrics"
	"github.com/angeloszaimis/backup-config/internal/properties"
	"github.com/angeloszaimis/backup-config/internal/render"
)

const serverInput = `
properties:
  cf-mysql-backup:
    xtrabackup_path: VALUE
    tls:
      server_certificate: some-cert
      server_key: some-key
      server_name: some-server-name
    endpoint_credentials:
      username: some-username
      password: some-password
`

const clientInput = `
properties:
  cf-mysql-backup:
    symmetric_key: some-symmetric-key
    tls:
      ca_certificate: some-ca
      server_name: some-server-name
links:
  mysql-backup-tool:
    instances:
      - address: backup-instance-address-1
        id: instance-id-1
      - address: backup-instance-address-2
        id: instance-id-2
    properties:
      cf-mysql-backup:
        endpoint_credentials:
          username: some-username
          password: some-password
`

func mustInput(doc string) render.Input {
	in, err := render.ParseInput([]byte(doc))
	Expect(err).NotTo(HaveOccurred())
	return in
}

var _ = Describe("Renderer", func() {
	var (
		renderer  *render.Renderer
		collector *metrics.Collector
		ctx       context.Context
		cancel    context.CancelFunc
		log       *slog.Logger
	)

	BeforeEach(func() {
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		ctx, cancel = context.WithCancel(context.Background())
		collector = metrics.NewCollector(100, log)
		collector.Start(ctx)
		renderer = render.New(render.Options{Logger: log, Collector: collector})
	})

	AfterEach(func() {
		cancel()
	})

	Describe("Render", func() {
		It("should render the tool config and process manifest", func() {
			out, err := renderer.Render(ctx, render.Request{Job: assembler.ServerJob, Input: mustInput(serverInput)})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Job).To(Equal(assembler.ServerJob))
			Expect(out.Files).To(HaveLen(2))
			Expect(out.Files[0].Name).To(Equal(render.ServerConfigFile))
			Expect(out.Files[1].Name).To(Equal(render.ProcessConfigFile))

			cfg, err := assembler.Unmarshal[assembler.ServerConfig](out.Files[0].Content)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Command).To(HavePrefix("VALUE/xtrabackup "))
			Expect(cfg.Credentials.Username).To(Equal("some-username"))

			manifest, err := assembler.Unmarshal[assembler.ProcessManifest](out.Files[1].Content)
			Expect(err).NotTo(HaveOccurred())
			Expect(manifest.Processes[0].Env["PATH"]).To(HaveSuffix(":VALUE/xtrabackup/bin"))
		})

		It("should render the client config from the backup tool link", func() {
			out, err := renderer.Render(ctx, render.Request{Job: assembler.ClientJob, Input: mustInput(clientInput)})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Files).To(HaveLen(1))
			Expect(out.Files[0].Name).To(Equal(render.ClientConfigFile))

			cfg, err := assembler.Unmarshal[assembler.ClientConfig](out.Files[0].Content)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Instances).To(ConsistOf(
				endpoints.Instance{Address: "backup-instance-address-1", UUID: "instance-id-1"},
				endpoints.Instance{Address: "backup-instance-address-2", UUID: "instance-id-2"},
			))
			Expect(cfg.Credentials.Password).To(Equal("some-password"))
		})

		It("should honour a custom namespace", func() {
			custom := render.New(render.Options{Namespace: "backup", Logger: log})
			out, err := custom.Render(ctx, render.Request{Job: assembler.ServerJob, Input: mustInput(`
properties:
  backup:
    tls:
      server_certificate: some-cert
      server_key: some-key
      server_name: some-server-name
    endpoint_credentials:
      username: u
      password: p
`)})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Files).To(HaveLen(2))
			Expect(custom.Namespace()).To(Equal("backup"))
		})

		It("should surface missing properties verbatim and produce no output", func() {
			out, err := renderer.Render(ctx, render.Request{Job: assembler.ServerJob, Input: mustInput(`
properties:
  cf-mysql-backup:
    tls:
      server_certificate: some-cert
      server_key: some-key
      server_name: some-server-name
`)})
			Expect(err).To(MatchError("Can't find property 'cf-mysql-backup.endpoint_credentials.username'"))
			Expect(render.Reason(err)).To(Equal(render.ReasonMissingProperty))
			Expect(out.Files).To(BeEmpty())
		})

		It("should reject unknown jobs", func() {
			_, err := renderer.Render(ctx, render.Request{Job: "mysql", Input: mustInput(serverInput)})
			Expect(err).To(MatchError(render.ErrUnknownJob))
			Expect(render.Reason(err)).To(Equal(render.ReasonInvalidInput))
		})

		It("should reject link instances without an address", func() {
			_, err := renderer.Render(ctx, render.Request{Job: assembler.ClientJob, Input: mustInput(`
properties:
  cf-mysql-backup:
    symmetric_key: k
    tls: {ca_certificate: ca, server_name: n}
links:
  mysql-backup-tool:
    instances:
      - id: instance-id-1
`)})
			var invalid *render.InputError
			Expect(err).To(BeAssignableToTypeOf(invalid))
		})

		It("should record render metrics", func() {
			_, err := renderer.Render(ctx, render.Request{Job: assembler.ServerJob, Input: mustInput(serverInput)})
			Expect(err).NotTo(HaveOccurred())
			_, err = renderer.Render(ctx, render.Request{Job: assembler.ClientJob, Input: mustInput(`properties: {}`)})
			Expect(err).To(HaveOccurred())

			Eventually(func() int64 {
				return collector.Snapshot("").TotalRenders
			}).Should(Equal(int64(2)))
			Eventually(func() int64 {
				return collector.Snapshot("").Jobs[assembler.ServerJob].Successes
			}).Should(Equal(int64(1)))
			Eventually(func() int64 {
				return collector.Snapshot("").Jobs[assembler.ClientJob].Failures[render.ReasonMissingProperty]
			}).Should(Equal(int64(1)))
		})

		It("should count unknown jobs under a single bucket", func() {
			for _, job := range []string{"mysql", "proxy", "../etc"} {
				_, err := renderer.Render(ctx, render.Request{Job: job, Input: mustInput(serverInput)})
				Expect(err).To(MatchError(render.ErrUnknownJob))
			}

			Eventually(func() int64 {
				return collector.Snapshot("").Jobs[render.UnknownJob].Failures[render.ReasonInvalidInput]
			}).Should(Equal(int64(3)))
			Expect(collector.Snapshot("").Jobs).To(HaveLen(1))
			Expect(collector.Snapshot("").Jobs).To(HaveKey(render.UnknownJob))
		})

		It("should stop on a cancelled context", func() {
			cancelled, stop := context.WithCancel(context.Background())
			stop()
			_, err := renderer.Render(cancelled, render.Request{Job: assembler.ServerJob, Input: mustInput(serverInput)})
			Expect(err).To(MatchError(context.Canceled))
		})
	})

	Describe("RenderAll", func() {
		It("should render jobs concurrently and keep request order", func() {
			reqs := []render.Request{
				{Job: assembler.ClientJob, Input: mustInput(clientInput)},
				{Job: assembler.ServerJob, Input: mustInput(serverInput)},
				{Job: assembler.ClientJob, Input: mustInput(clientInput)},
			}

			outs, err := renderer.RenderAll(ctx, reqs)
			Expect(err).NotTo(HaveOccurred())
			Expect(outs).To(HaveLen(3))
			Expect(outs[0].Job).To(Equal(assembler.ClientJob))
			Expect(outs[1].Job).To(Equal(assembler.ServerJob))
			Expect(outs[2].Files[0].Content).To(Equal(outs[0].Files[0].Content))
		})

		It("should fail as a whole when one job fails", func() {
			outs, err := renderer.RenderAll(ctx, []render.Request{
				{Job: assembler.ServerJob, Input: mustInput(serverInput)},
				{Job: assembler.ClientJob, Input: mustInput(`properties: {}`)},
			})
			Expect(err).To(MatchError(ContainSubstring(assembler.ClientJob)))
			Expect(properties.IsMissing(err)).To(BeTrue())
			Expect(outs).To(BeNil())
		})
	})

	Describe("Reason", func() {
		It("should classify empty endpoint resolutions", func() {
			_, err := renderer.Render(ctx, render.Request{Job: assembler.ClientJob, Input: mustInput(`
properties:
  cf-mysql-backup:
    symmetric_key: k
    tls: {ca_certificate: ca, server_name: n}
links:
  mysql-backup-tool:
    properties:
      cf-mysql-backup:
        endpoint_credentials: {username: u, password: p}
`)})
			Expect(render.Reason(err)).To(Equal(render.ReasonNoEndpoints))
		})

		It("should classify type mismatches", func() {
			_, err := renderer.Render(ctx, render.Request{Job: assembler.ServerJob, Input: mustInput(`
properties:
  cf-mysql-backup:
    enable_mutual_tls: "true"
`)})
			Expect(render.Reason(err)).To(Equal(render.ReasonTypeMismatch))
		})
	})

	It("should not depend on wall clock", func() {
		first, err := renderer.Render(ctx, render.Request{Job: assembler.ClientJob, Input: mustInput(clientInput)})
		Expect(err).NotTo(HaveOccurred())
		time.Sleep(2 * time.Millisecond)
		second, err := renderer.Render(ctx, render.Request{Job: assembler.ClientJob, Input: mustInput(clientInput)})
		Expect(err).NotTo(HaveOccurred())
		Expect(second).To(Equal(first))
	})
})
