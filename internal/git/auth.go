package git

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

// AuthConfig holds credentials for private remotes. The zero value means
// anonymous access; local and file:// remotes never use credentials.
type AuthConfig struct {
	// Token is sent as the password of HTTP basic auth (GitHub/Gitea style).
	Token    string
	Username string
	Password string
	// SSHKeyPath selects a private key for ssh:// and scp-like remotes.
	SSHKeyPath    string
	SSHPassphrase string
}

// Empty reports whether no credentials are configured.
func (a AuthConfig) Empty() bool {
	return a.Token == "" && a.Password == "" && a.SSHKeyPath == ""
}

// authFor selects the auth method matching the remote's transport.
func (a AuthConfig) authFor(remote string) (transport.AuthMethod, error) {
	if a.Empty() {
		return nil, nil
	}
	switch remoteScheme(remote) {
	case "http", "https":
		return a.httpAuth(), nil
	case "ssh":
		if a.SSHKeyPath == "" {
			return nil, nil
		}
		keyPath := a.SSHKeyPath
		if strings.HasPrefix(keyPath, "~/") {
			keyPath = filepath.Join(os.Getenv("HOME"), keyPath[2:])
		}
		user := "git"
		if u, err := transport.NewEndpoint(remote); err == nil && u.User != "" {
			user = u.User
		}
		keys, err := ssh.NewPublicKeysFromFile(user, keyPath, a.SSHPassphrase)
		if err != nil {
			return nil, fmt.Errorf("failed to load SSH key from %s: %w", keyPath, err)
		}
		return keys, nil
	default:
		return nil, nil
	}
}

func (a AuthConfig) httpAuth() transport.AuthMethod {
	switch {
	case a.Token != "":
		user := a.Username
		if user == "" {
			user = "token"
		}
		return &http.BasicAuth{Username: user, Password: a.Token}
	case a.Password != "":
		return &http.BasicAuth{Username: a.Username, Password: a.Password}
	default:
		return nil
	}
}

// remoteScheme returns the transport scheme of a remote, treating scp-like
// "user@host:path" as ssh and bare paths as file.
func remoteScheme(remote string) string {
	if u, err := url.Parse(remote); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		return strings.ToLower(u.Scheme)
	}
	if i := strings.Index(remote, ":"); i > 0 && !strings.Contains(remote[:i], "/") {
		return "ssh"
	}
	return "file"
}
