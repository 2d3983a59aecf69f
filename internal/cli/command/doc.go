// Package command defines memcell-cli's command tree on urfave/cli/v2.
//
// Every command shares one Env built in the root Before hook: the merged
// CLI config, a connection.Manager routing keys over the configured servers,
// and the output formatter. The repl command re-enters the same tree for each
// line, reusing that Env so connections stay open between commands.
//
// urfave/cli v2 stops parsing flags at the first argument, so flags come
// first: `memcell-cli set --ttl 30s KEY VALUE`.
package command
