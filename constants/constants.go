package constants

var (
	VERSION = "0.1.0"

	// Set at link time by the magefile.
	BUILD_TIME  = ""
	COMMIT_HASH = ""

	// Process names of the tracked database families.
	DEFAULT_PRIMARY_PROCESS = "db2sysc"
	DEFAULT_HELPER_PROCESS  = "db2fmp"

	DEFAULT_LOG_FILE = "db2andsyssems.csv"

	// The CSV header is consumed by existing tooling and must not
	// change.
	SAMPLE_LOG_HEADER = "ts,db2inst_semcnt,db2fmp_semcnt,sys_semcnt,max_sem"

	// Bucket name for everything not owned by a tracked user.
	SYSTEM_BUCKET = "system"
)
