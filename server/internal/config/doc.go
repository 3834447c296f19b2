// Package config loads the ttlpool configuration from config.yaml.
//
// Config fields:
//   - Server.HTTPPort       : REST API, /metrics and /ws/stream (default 8080, 0 disables)
//   - Server.GRPCPort       : gRPC health service (default 50051, 0 disables)
//   - Server.Auth           : mode apikey|none, key_env, header (default "x-api-key")
//   - Collector.Period      : periodic sweep period (default 30s)
//   - Collector.Autostart   : start the periodic loop at boot
//   - Collector.Reactive    : sweep once after every insert
//   - Collector.MinLifetime,
//     Collector.MaxLifetime : range for random default lifetimes (1s–240s)
//   - Stream.Interval       : pool broadcast interval for stream clients (5s)
//   - Console.Enabled/Prompt: interactive shell on stdin
//   - Log.Level/File        : slog level and optional log file
//
// Load(path) applies defaults before unmarshalling, then validates. An empty
// path yields the defaults. Watch(ctx, path, onChange) reloads the file with
// fsnotify whenever it is written.
package config
