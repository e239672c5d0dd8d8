// Package tlspolicy resolves the transport security mode of the backup server
// and client. Each role has two sealed variants, server-only TLS and mutual
// TLS, and each variant carries exactly the fields valid for that mode.
package tlspolicy
