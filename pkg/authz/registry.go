package authz

const (
	LevelAdmin      = "admin"
	LevelPastor     = "pastor"
	LevelSecretaria = "secretaria"
	// LevelUser marks an authenticated caller that has not yet
	// submitted a profile.
	LevelUser      = "user"
	LevelAnonymous = "anonymous"
)

const (
	ActionRead  = "read"
	ActionWrite = "write"
	ActionAdmin = "admin"
)

const (
	ObjectIAMSession          = "iam.session"
	ObjectIAMUsers            = "iam.users"
	ObjectProfilesProfiles    = "profiles.profiles"
	ObjectProfilesOwn         = "profiles.own"
	ObjectRecordsHierarchy    = "records.hierarchy"
	ObjectRecordsParishioners = "records.parishioners"
)
