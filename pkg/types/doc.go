/*
Package types defines the volume record shared by the storage and volume
packages.

A Volume moves through a short lifecycle:

	(absent) ──Create──▶ created ──Remove──▶ removing ──▶ (absent)

There is no update path. Driver, Mountpoint, Options and Labels are fixed
when the record is inserted. Options and Labels are stored verbatim as the
JSON text produced at creation; VolumeInfo carries the parsed form used for
inspection.

A record left in the removing state means its directory removal started but
the record delete did not complete. Running the removal again finishes it.
*/
package types
