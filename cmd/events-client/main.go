package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"mediatracker/internal/events"
	"mediatracker/pkg/utils"
)

var errRejected = errors.New("server rejected subscription")

func main() {
	addr := flag.String("addr", "127.0.0.1:7070", "TCP events server address")
	token := flag.String("token", os.Getenv("MEDIATRACKER_TOKEN"), "owner access token (defaults to the CLI's saved token)")
	pretty := flag.Bool("pretty", true, "pretty print JSON events")
	flag.Parse()

	utils.SetupLogger(utils.LoadServerConfig().LogLevel)

	tok := *token
	if tok == "" {
		tok = savedToken()
	}
	if tok == "" {
		log.Fatal().Msg("no token: pass -token or run `mediatracker auth login`")
	}

	var last uint64
	for {
		err := run(*addr, tok, &last, *pretty, os.Stdout)
		if errors.Is(err, errRejected) {
			log.Fatal().Err(err).Msg("giving up")
		}
		if err != nil {
			log.Warn().Err(err).Uint64("last_seq", last).Msg("disconnected")
		}
		time.Sleep(1 * time.Second)
	}
}

// run subscribes once and prints events until the connection ends.
func run(addr, token string, last *uint64, pretty bool, out io.Writer) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	hello := events.Hello{Token: token}
	if *last > 0 {
		since := *last
		hello.Since = &since
	}
	if err := json.NewEncoder(conn).Encode(hello); err != nil {
		return fmt.Errorf("hello: %w", err)
	}

	log.Info().Str("addr", addr).Uint64("since", *last).Msg("connected")

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		line := sc.Bytes()
		var head struct {
			Type  string `json:"type"`
			Error string `json:"error"`
		}
		if err := json.Unmarshal(line, &head); err != nil {
			fmt.Fprintln(out, string(line))
			continue
		}
		switch head.Type {
		case events.TypeError:
			return fmt.Errorf("%w: %s", errRejected, head.Error)
		case events.TypeWelcome:
			var w events.Welcome
			_ = json.Unmarshal(line, &w)
			log.Debug().Str("transport", w.Transport).Uint64("seq", w.Seq).Msg("welcome")
			continue
		}

		var ev events.RecordEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			fmt.Fprintln(out, string(line))
			continue
		}
		if ev.Seq <= *last {
			continue
		}
		if *last > 0 && ev.Seq != *last+1 {
			log.Warn().Uint64("from", *last+1).Uint64("to", ev.Seq-1).Msg("missed events")
		}
		*last = ev.Seq
		printEvent(out, line, ev, pretty)
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return io.EOF
}

func printEvent(out io.Writer, raw []byte, ev events.RecordEvent, pretty bool) {
	if !pretty {
		fmt.Fprintln(out, string(raw))
		return
	}
	b, err := json.MarshalIndent(ev, "", "  ")
	if err != nil {
		fmt.Fprintln(out, string(raw))
		return
	}
	fmt.Fprintln(out, string(b))
}

// savedToken reads the token file written by `mediatracker auth login`.
func savedToken() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(home, ".mediatracker", "token.json"))
	if err != nil {
		return ""
	}
	var td struct {
		Token string `json:"token"`
	}
	if json.Unmarshal(data, &td) != nil {
		return ""
	}
	return strings.TrimSpace(td.Token)
}
