// internal/core/scoring/cloud.go
package scoring

import "net/netip"

// cloudNetworks rangos de proveedores con IPs compartidas entre muchos
// clientes. Los reportes de abuso sobre estas IPs no son atribuibles al sitio.
// El orden decide el proveedor si dos rangos se solapan.
var cloudNetworks = []struct {
	provider string
	cidrs    []string
}{
	{"AWS", []string{
		"3.0.0.0/9", "13.32.0.0/15", "13.224.0.0/14", "18.128.0.0/9",
		"34.192.0.0/10", "44.192.0.0/10", "52.0.0.0/10", "52.192.0.0/10",
		"54.0.0.0/8", "99.84.0.0/16",
	}},
	{"Google Cloud", []string{
		"34.64.0.0/10", "34.128.0.0/10", "35.184.0.0/13", "35.192.0.0/12",
		"35.208.0.0/12", "35.224.0.0/12", "104.196.0.0/14", "130.211.0.0/16",
	}},
	{"Cloudflare", []string{
		"103.21.244.0/22", "103.22.200.0/22", "103.31.4.0/22", "104.16.0.0/13",
		"104.24.0.0/14", "108.162.192.0/18", "131.0.72.0/22", "141.101.64.0/18",
		"162.158.0.0/15", "172.64.0.0/13", "173.245.48.0/20", "188.114.96.0/20",
		"190.93.240.0/20", "197.234.240.0/22", "198.41.128.0/17",
		"2400:cb00::/32", "2606:4700::/32", "2803:f800::/32", "2a06:98c0::/29",
	}},
	{"Vercel", []string{
		"76.76.16.0/20", "66.33.60.0/24",
	}},
	{"Fastly", []string{
		"23.235.32.0/20", "146.75.0.0/17", "151.101.0.0/16", "199.232.0.0/16",
		"2a04:4e40::/32",
	}},
	{"DigitalOcean", []string{
		"64.225.0.0/16", "68.183.0.0/16", "104.131.0.0/16", "104.236.0.0/16",
		"138.68.0.0/16", "142.93.0.0/16", "157.230.0.0/16", "159.65.0.0/16",
		"159.89.0.0/16", "161.35.0.0/16", "164.90.0.0/16", "165.22.0.0/16",
		"167.71.0.0/16", "167.99.0.0/16", "178.62.0.0/16", "188.166.0.0/16",
		"206.189.0.0/16",
	}},
}

type cloudPrefix struct {
	provider string
	prefix   netip.Prefix
}

var cloudPrefixes = func() []cloudPrefix {
	var out []cloudPrefix
	for _, n := range cloudNetworks {
		for _, c := range n.cidrs {
			out = append(out, cloudPrefix{provider: n.provider, prefix: netip.MustParsePrefix(c)})
		}
	}
	return out
}()

// CloudProvider retorna el proveedor cloud dueño de la IP, si lo hay.
func CloudProvider(ip string) (string, bool) {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "", false
	}
	addr = addr.Unmap()
	for _, cp := range cloudPrefixes {
		if cp.prefix.Contains(addr) {
			return cp.provider, true
		}
	}
	return "", false
}

// IsCloudIP indica si la IP pertenece a un rango cloud compartido.
func IsCloudIP(ip string) bool {
	_, ok := CloudProvider(ip)
	return ok
}
