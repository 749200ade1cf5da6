package curl

import (
	"bufio"
	"encoding/base64"
	"strings"

	"github.com/abdul-hamid-achik/hitflow/packages/core/request"
)

// flags that are accepted and ignored
var noopFlags = map[string]bool{
	"-v": true, "--verbose": true,
	"-s": true, "--silent": true,
	"-S": true, "--show-error": true,
	"-L": true, "--location": true,
	"-i": true, "--include": true,
}

// flags that are ignored together with the value that follows them
var skipValueFlags = map[string]bool{
	"-o": true, "--output": true,
	"-w": true, "--write-out": true,
	"-c": true, "--cookie-jar": true,
	"-b": true, "--cookie": true,
	"-m": true, "--max-time": true,
	"--connect-timeout": true,
	"--retry": true,
	"--resolve": true,
	"-F": true, "--form": true,
	"-T": true, "--upload-file": true,
	"-x": true, "--proxy": true,
}

// Parse parses a curl command into a request descriptor.
//
// GET is promoted to POST when a body is present and no method was given
// explicitly. Repeated headers overwrite earlier values for the same key.
func Parse(curlCmd string) (*request.Descriptor, error) {
	tokens, err := Tokenize(curlCmd)
	if err != nil {
		return nil, err
	}
	return ParseArgs(tokens)
}

// Tokenize joins continued lines and splits a curl command into words with
// shell quoting applied. The words can be handed to ParseArgs.
func Tokenize(curlCmd string) ([]string, error) {
	return tokenize(strings.TrimSpace(joinContinuations(curlCmd)))
}

// ParseArgs builds a descriptor from words that are already split, such as
// a program's argument vector. A leading "curl" word is skipped.
//
// A word with a scheme takes the URL over a bare dotted word; between words
// of the same kind the last one wins.
func ParseArgs(tokens []string) (*request.Descriptor, error) {
	if len(tokens) > 0 && strings.EqualFold(tokens[0], "curl") {
		tokens = tokens[1:]
	}

	desc := request.NewDescriptor()
	explicitMethod := false
	urlHasScheme := false

	i := 0
	for i < len(tokens) {
		token := tokens[i]

		value := func() (string, error) {
			if i+1 >= len(tokens) {
				return "", &ParseError{Flag: token, Reason: "missing value"}
			}
			return tokens[i+1], nil
		}

		switch {
		case token == "-X" || token == "--request":
			v, err := value()
			if err != nil {
				return nil, err
			}
			desc.Method = strings.ToUpper(v)
			explicitMethod = true
			i += 2

		case token == "-H" || token == "--header":
			v, err := value()
			if err != nil {
				return nil, err
			}
			if key, val, ok := strings.Cut(v, ":"); ok {
				desc.SetHeader(strings.TrimSpace(key), strings.TrimSpace(val))
			}
			i += 2

		case token == "-d" || token == "--data" || token == "--data-raw" || token == "--data-binary":
			v, err := value()
			if err != nil {
				return nil, err
			}
			desc.SetBody(v)
			i += 2

		case token == "--json":
			v, err := value()
			if err != nil {
				return nil, err
			}
			desc.SetBody(v)
			desc.SetHeader("Content-Type", "application/json")
			i += 2

		case token == "-k" || token == "--insecure":
			desc.TLSVerify = false
			i++

		case token == "-A" || token == "--user-agent":
			v, err := value()
			if err != nil {
				return nil, err
			}
			desc.SetHeader("User-Agent", v)
			i += 2

		case token == "-u" || token == "--user":
			v, err := value()
			if err != nil {
				return nil, err
			}
			desc.SetHeader("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(v)))
			i += 2

		case token == "-e" || token == "--referer":
			v, err := value()
			if err != nil {
				return nil, err
			}
			desc.SetHeader("Referer", v)
			i += 2

		case noopFlags[token]:
			i++

		case skipValueFlags[token]:
			i += 2

		case strings.HasPrefix(token, "-"):
			// unknown flag
			i++

		default:
			switch {
			case request.HasScheme(token):
				desc.URL = token
				urlHasScheme = true
			case !urlHasScheme && strings.Contains(token, "."):
				desc.URL = request.NormalizeURL(token)
			}
			i++
		}
	}

	if desc.URL == "" {
		return nil, ErrMissingURL
	}

	if desc.HasBody() && !explicitMethod {
		desc.Method = "POST"
	}

	return desc, nil
}

// SplitCommands splits text holding several curl commands into one string
// per command. Blank lines and lines starting with # are skipped and
// backslash continuations are joined.
func SplitCommands(text string) []string {
	var commands []string
	var current strings.Builder

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasSuffix(line, "\\") {
			current.WriteString(strings.TrimSuffix(line, "\\"))
			current.WriteString(" ")
			continue
		}

		current.WriteString(line)
		commands = append(commands, current.String())
		current.Reset()
	}

	if current.Len() > 0 {
		commands = append(commands, strings.TrimSpace(current.String()))
	}

	return commands
}
