package main

// Default ACME directory URLs, overridden by -a or selected via -s.
const (
	defaultDirectoryURL = "https://acme-v02.api.letsencrypt.org/directory"
	stagingDirectoryURL = "https://acme-staging-v02.api.letsencrypt.org/directory"

	defaultConfDir = "/etc/ssl/uacme"
	defaultDays    = 30
)

// globalFlags holds the persistent flags shared by every subcommand.
type globalFlags struct {
	directoryURL string
	confDir      string
	days         int
	force        bool
	hook         string
	neverCreate  bool
	staging      bool
	verbosity    int
	autoAccept   bool
	caCert       string
}

func (f *globalFlags) resolveDirectoryURL() string {
	if f.directoryURL != "" {
		return f.directoryURL
	}
	if f.staging {
		return stagingDirectoryURL
	}
	return defaultDirectoryURL
}
