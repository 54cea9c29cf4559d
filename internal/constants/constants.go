package constants

import (
	"path/filepath"
	"time"
)

// Base paths for dockhand on the server
const (
	BasePath = "/srv/dockhand"
	AppsDir  = BasePath + "/apps"

	RemoteLogFile = "/var/log/dockhand.log"
)

// Application identity. A host runs exactly one dockhand-managed
// application: the container, the image tag and the proxy rule all share
// this fixed name, whichever repository is deployed.
const (
	AppName    = "app"
	PublicPort = 80
)

// nginx configuration locations. Rule files for the application are removed
// from every location nginx may load from before a new one is written.
const (
	NginxSitesAvailable = "/etc/nginx/sites-available"
	NginxSitesEnabled   = "/etc/nginx/sites-enabled"
	NginxConfD          = "/etc/nginx/conf.d"
)

// Timeouts
const (
	ProbeTimeout     = 10 * time.Second
	ConnectTimeout   = 30 * time.Second
	CommandTimeout   = 2 * time.Minute
	SyncTimeout      = 5 * time.Minute
	ProvisionTimeout = 10 * time.Minute
	DeployTimeout    = 15 * time.Minute
	SmokeTimeout     = 15 * time.Second
)

// AppDeployPath returns the remote deployment directory for a repository.
func AppDeployPath(repoName string) string {
	return filepath.Join(AppsDir, repoName)
}

// NginxSitePath returns the sites-available rule file for the application.
func NginxSitePath() string {
	return filepath.Join(NginxSitesAvailable, AppName)
}

// NginxEnabledPath returns the sites-enabled symlink for the application.
func NginxEnabledPath() string {
	return filepath.Join(NginxSitesEnabled, AppName)
}

// NginxConfDPath returns the conf.d rule file for the application.
func NginxConfDPath() string {
	return filepath.Join(NginxConfD, AppName+".conf")
}
