package schema

const emailPattern = `[a-zA-Z0-9._%+-]{1,256}@[a-zA-Z0-9.-]{1,256}\.[a-zA-Z]{2,10}`

var emails = &Schema{
	ID:         "emails",
	Table:      "emails",
	MainColumn: "email",
	// The email column is EPHEMERAL: inserts carry the raw match, the server
	// decomposes it into user/domain so both sides can be indexed and
	// filtered independently.
	CreateSQL: `
		CREATE TABLE IF NOT EXISTS emails (
			file_path LowCardinality(String),
			offset UInt64,
			email String EPHEMERAL,
			user String DEFAULT substring(email, 1, minus(position(email, '@'), 1)),
			domain String DEFAULT substring(email, position(email, '@') + 1),
			INDEX user_bf user TYPE bloom_filter(0.01) GRANULARITY 1
		) ENGINE = MergeTree()
		ORDER BY (domain, user)
		SETTINGS index_granularity = 8192`,
	ExtractPattern:   emailPattern,
	ResultExpr:       "concat(user, '@', domain)",
	HighlightPattern: emailPattern,
	Filters: []Filter{
		{Name: "email", Flag: "email", Help: "Search for exact email", Kind: FilterEmail},
		{Name: "domain", Flag: "email-domain", Help: "Search for emails in domain", Kind: FilterExact, Column: "domain"},
		{Name: "domain_wildcard", Flag: "email-domain-wildcard", Help: "Search for emails in domain with wildcard (e.g. %.com)", Kind: FilterWildcard, Column: "domain"},
		{Name: "user", Flag: "user", Help: "Search for emails by username (slow - see README for tuning)", Kind: FilterExact, Column: "user"},
		{Name: "user_wildcard", Flag: "user-wildcard", Help: "Search for emails by username with wildcard (slow - see README for tuning)", Kind: FilterWildcard, Column: "user"},
	},
}

// The lookbehind (?<!@) keeps domains that are part of an email address out
// of this table; those already land in the emails schema.
const domainPattern = `(?<![a-zA-Z0-9.-@])\b[a-zA-Z0-9.-]{1,256}\.[a-zA-Z]{2,32}\b`

var domains = &Schema{
	ID:         "domains",
	Table:      "domains",
	MainColumn: "domain",
	CreateSQL: `
		CREATE TABLE IF NOT EXISTS domains (
			file_path LowCardinality(String),
			offset UInt64,
			domain String
		) ENGINE = MergeTree()
		ORDER BY domain
		SETTINGS index_granularity = 8192`,
	ExtractPattern:   domainPattern,
	ResultExpr:       "domain",
	HighlightPattern: domainPattern,
	Filters: []Filter{
		{Name: "domain", Flag: "domain", Help: "Search for exact *standalone* domain (not part of an email address)", Kind: FilterExact, Column: "domain"},
		{Name: "domain_wildcard", Flag: "domain-wildcard", Help: "Search for *standalone* domain with wildcard (e.g. %.org or com.android.%)", Kind: FilterWildcard, Column: "domain"},
	},
}

const ipPattern = `\b(?:\d{1,3}\.){3}\d{1,3}\b`

var ips = &Schema{
	ID:         "ips",
	Table:      "ips",
	MainColumn: "ip",
	CreateSQL: `
		CREATE TABLE IF NOT EXISTS ips (
			file_path LowCardinality(String),
			offset UInt64,
			ip String
		) ENGINE = MergeTree()
		ORDER BY ip
		SETTINGS index_granularity = 8192`,
	ExtractPattern:   ipPattern,
	ResultExpr:       "ip",
	HighlightPattern: ipPattern,
	Filters: []Filter{
		{Name: "ip", Flag: "ip", Help: "Search for exact IP", Kind: FilterExact, Column: "ip"},
		{Name: "ip_wildcard", Flag: "ip-wildcard", Help: "Search for IP with wildcard", Kind: FilterWildcard, Column: "ip"},
	},
}

const uuidPattern = `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`

var uuids = &Schema{
	ID:         "uuids",
	Table:      "uuids",
	MainColumn: "uuid",
	CreateSQL: `
		CREATE TABLE IF NOT EXISTS uuids (
			file_path LowCardinality(String),
			offset UInt64,
			uuid String
		) ENGINE = MergeTree()
		ORDER BY uuid
		SETTINGS index_granularity = 8192`,
	ExtractPattern:   uuidPattern,
	ResultExpr:       "uuid",
	HighlightPattern: uuidPattern,
	Filters: []Filter{
		{Name: "uuid", Flag: "uuid", Help: "Search for UUID", Kind: FilterExact, Column: "uuid"},
		{Name: "uuid_wildcard", Flag: "uuid-wildcard", Help: "Search for UUID with wildcard", Kind: FilterWildcard, Column: "uuid"},
	},
}
