package tlspolicy_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/backup-config/internal/properties"
	"github.com/angeloszaimis/backup-config/internal/tlspolicy"
)

var _ = Describe("ResolveBackend", func() {
	It("should default to plain HTTP without reading the TLS properties", func() {
		backend, err := tlspolicy.ResolveBackend(mustBag(`
cf-mysql-backup:
  galera_agent:
    tls:
      ca: [not, a, string]
`))
		Expect(err).NotTo(HaveOccurred())
		Expect(backend).To(Equal(tlspolicy.Backend{}))
	})

	It("should read the CA and server name when enabled", func() {
		backend, err := tlspolicy.ResolveBackend(mustBag(`
cf-mysql-backup:
  galera_agent:
    tls:
      enabled: true
      ca: some-agent-ca
      server_name: some-agent-name
`))
		Expect(err).NotTo(HaveOccurred())
		Expect(backend).To(Equal(tlspolicy.Backend{
			Enabled:    true,
			ServerName: "some-agent-name",
			CA:         "some-agent-ca",
		}))
	})

	It("should pass through insecure_skip_verify", func() {
		backend, err := tlspolicy.ResolveBackend(mustBag(`
cf-mysql-backup:
  galera_agent:
    tls:
      enabled: true
      ca: some-agent-ca
      server_name: some-agent-name
      insecure_skip_verify: true
`))
		Expect(err).NotTo(HaveOccurred())
		Expect(backend.InsecureSkipVerify).To(BeTrue())
	})

	DescribeTable("should require the CA and server name when enabled",
		func(doc, path string) {
			_, err := tlspolicy.ResolveBackend(mustBag(doc))
			Expect(err).To(MatchError("Can't find property '" + path + "'"))
		},
		Entry("missing CA", `
cf-mysql-backup:
  galera_agent:
    tls: {enabled: true, server_name: some-agent-name}
`, "cf-mysql-backup.galera_agent.tls.ca"),
		Entry("empty CA", `
cf-mysql-backup:
  galera_agent:
    tls: {enabled: true, ca: "", server_name: some-agent-name}
`, "cf-mysql-backup.galera_agent.tls.ca"),
		Entry("missing server name", `
cf-mysql-backup:
  galera_agent:
    tls: {enabled: true, ca: some-agent-ca}
`, "cf-mysql-backup.galera_agent.tls.server_name"),
	)

	It("should reject a non-boolean enabled flag", func() {
		_, err := tlspolicy.ResolveBackend(mustBag(`
cf-mysql-backup:
  galera_agent:
    tls: {enabled: "true"}
`))
		var mismatch *properties.TypeMismatchError
		Expect(err).To(BeAssignableToTypeOf(mismatch))
	})
})
