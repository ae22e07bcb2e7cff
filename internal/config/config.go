package config // package config loads application configuration from environment variables

import (
    "log"      // log is used to report configuration errors and halt execution
    "os"       // os provides access to environment variables
    "strconv"  // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations
// and costs, floats for rates.
type Config struct {
    Env            string  // application environment (e.g. "dev", "prod")
    Port           string  // HTTP port to listen on
    BaseURL        string  // public base URL used for payment redirects
    DBUser         string  // database username
    DBPass         string  // database password (optional)
    DBHost         string  // database host address
    DBPort         string  // database port number
    DBName         string  // database name
    JWTSecret      string  // secret used to sign JWTs
    AccessTTLMin   int     // access token time-to-live in minutes
    RefreshTTLDays int     // refresh token time-to-live in days
    BcryptCost     int     // bcrypt cost for password hashing
    CommissionRate float64 // platform commission rate applied to payments
    Currency       string  // ISO currency code stamped on payments
    StripeSecret   string  // Stripe API key; empty switches to the simulated payment flow
    StripeWebhookSecret string // secret used to verify Stripe webhook signatures
    ReservationTTLMin   int // minutes a PENDING reservation may live before the sweeper cancels it
    SweepIntervalSec    int // seconds between expiry sweeps
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Payment-provider
// variables are optional: without a Stripe key the service runs with the
// simulated payment flow only.
func Load() Config {
    return Config{
        Env:            must("APP_ENV"),             // environment (dev/test/prod)
        Port:           must("APP_PORT"),            // port to bind the HTTP server
        BaseURL:        optional("APP_BASE_URL", "http://localhost:8080"), // used in checkout redirect URLs
        DBUser:         must("DB_USER"),             // database user
        DBPass:         os.Getenv("DB_PASS"),        // database password (empty allowed)
        DBHost:         must("DB_HOST"),             // database host
        DBPort:         must("DB_PORT"),             // database port
        DBName:         must("DB_NAME"),             // database name
        JWTSecret:      must("JWT_SECRET"),          // secret used for signing JWTs
        AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),   // TTL for access tokens in minutes
        RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"), // TTL for refresh tokens in days
        BcryptCost:     mustInt("BCRYPT_COST"),      // bcrypt cost factor
        CommissionRate: optionalFloat("COMMISSION_RATE", 0.05), // platform share of gross payments
        Currency:       optional("CURRENCY", "EUR"),            // currency for new payments
        StripeSecret:   os.Getenv("STRIPE_SECRET_KEY"),         // empty -> simulated payments
        StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"), // verifies inbound webhook signatures
        ReservationTTLMin:   optionalInt("RESERVATION_TTL_MIN", 30), // stale-PENDING cutoff
        SweepIntervalSec:    optionalInt("SWEEP_INTERVAL_SEC", 60),  // sweep cadence
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}

// optional returns the variable's value or the default when unset.
func optional(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

// optionalInt parses the variable as an integer, falling back to the
// default on absence or parse failure.
func optionalInt(key string, def int) int {
    v := os.Getenv(key)
    if v == "" {
        return def
    }
    n, err := strconv.Atoi(v)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, v)
    }
    return n
}

// optionalFloat parses the variable as a float, falling back to the
// default when unset.  An unparseable value is fatal: a mistyped
// commission rate must not silently become zero.
func optionalFloat(key string, def float64) float64 {
    v := os.Getenv(key)
    if v == "" {
        return def
    }
    f, err := strconv.ParseFloat(v, 64)
    if err != nil {
        log.Fatalf("invalid float for %s: %q", key, v)
    }
    return f
}
