package engine

import "fmt"

// Build resolves configured engine names, in order, into engines.
// Known names are "http", "rod" and "rod-stealth".
func Build(names []string, httpEngine *HTTPEngine, rodFetch RodFetchFunc) ([]Engine, error) {
	engines := make([]Engine, 0, len(names))
	for _, name := range names {
		switch name {
		case "http":
			if httpEngine == nil {
				return nil, fmt.Errorf("engine %q requested but not configured", name)
			}
			engines = append(engines, httpEngine)
		case "rod":
			engines = append(engines, NewRodEngine(rodFetch, false))
		case "rod-stealth":
			engines = append(engines, NewRodEngine(rodFetch, true))
		default:
			return nil, fmt.Errorf("unknown engine %q", name)
		}
	}
	if len(engines) == 0 {
		return nil, fmt.Errorf("no engines configured")
	}
	return engines, nil
}
