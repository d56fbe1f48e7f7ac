/*
Package types defines the data structures shared across Ferrum.

# Overview

The types package holds the wire-level and in-memory shapes used by the
store client, the session and settings controllers, the telemetry bridge and
the reference server:
  - Config: the complete user-configurable settings snapshot
  - SysInfo: one point-in-time host measurement (telemetry sample)
  - FileContent: a document as returned by the backend
  - request bodies for the save/config endpoints

# Config Snapshots

Config is treated as an immutable value. A new Config is built wholesale from
the settings form on every save attempt and compared with Equal against the
one currently held; only a different snapshot is pushed to the server.

# Wire Format

JSON field names match the backend API (camelCase). The getFileContent
response reports a missing file in-band with "err": 404 rather than through
the HTTP status, see FileContent.Missing.
*/
package types
