package canon

// Implementation headers of common C libraries and the public header that
// provides them.
var cSuffixes = map[string]string{
	"bits/types/FILE.h":         "<stdio.h>",
	"bits/types/struct_FILE.h":  "<stdio.h>",
	"bits/stdio.h":              "<stdio.h>",
	"bits/stdio2.h":             "<stdio.h>",
	"bits/string_fortified.h":   "<string.h>",
	"bits/stdint-intn.h":        "<stdint.h>",
	"bits/stdint-uintn.h":       "<stdint.h>",
	"bits/types/time_t.h":       "<time.h>",
	"bits/types/struct_tm.h":    "<time.h>",
	"bits/errno.h":              "<errno.h>",
	"bits/stat.h":               "<sys/stat.h>",
	"bits/socket.h":             "<sys/socket.h>",
	"bits/pthreadtypes.h":       "<pthread.h>",
	"bits/stdlib-float.h":       "<stdlib.h>",
	"bits/mathcalls.h":          "<math.h>",
	"bits/sigaction.h":          "<signal.h>",
	"bits/types/sigset_t.h":     "<signal.h>",
	"bits/types/size_t.h":       "<stddef.h>",
	"include/stddef.h":          "<stddef.h>",
	"include/stdarg.h":          "<stdarg.h>",
	"include/stdbool.h":         "<stdbool.h>",
	"bits/types/struct_iovec.h": "<sys/uio.h>",
}

var cSymbols = map[string]string{
	"FILE":     "<stdio.h>",
	"printf":   "<stdio.h>",
	"fprintf":  "<stdio.h>",
	"snprintf": "<stdio.h>",
	"puts":     "<stdio.h>",
	"fopen":    "<stdio.h>",
	"fclose":   "<stdio.h>",
	"malloc":   "<stdlib.h>",
	"free":     "<stdlib.h>",
	"calloc":   "<stdlib.h>",
	"realloc":  "<stdlib.h>",
	"exit":     "<stdlib.h>",
	"abort":    "<stdlib.h>",
	"atoi":     "<stdlib.h>",
	"strlen":   "<string.h>",
	"strcmp":   "<string.h>",
	"strcpy":   "<string.h>",
	"memcpy":   "<string.h>",
	"memset":   "<string.h>",
	"size_t":   "<stddef.h>",
	"NULL":     "<stddef.h>",
	"int32_t":  "<stdint.h>",
	"int64_t":  "<stdint.h>",
	"uint8_t":  "<stdint.h>",
	"uint32_t": "<stdint.h>",
	"uint64_t": "<stdint.h>",
	"errno":    "<errno.h>",
	"assert":   "<assert.h>",
	"time":     "<time.h>",
	"sqrt":     "<math.h>",
}

var cxxSymbols = map[string]string{
	"std::string":        "<string>",
	"std::vector":        "<vector>",
	"std::map":           "<map>",
	"std::unordered_map": "<unordered_map>",
	"std::set":           "<set>",
	"std::unique_ptr":    "<memory>",
	"std::shared_ptr":    "<memory>",
	"std::make_unique":   "<memory>",
	"std::move":          "<utility>",
	"std::pair":          "<utility>",
	"std::cout":          "<iostream>",
	"std::cerr":          "<iostream>",
	"std::function":      "<functional>",
	"std::optional":      "<optional>",
	"std::sort":          "<algorithm>",
	"std::max":           "<algorithm>",
	"std::min":           "<algorithm>",
	"size_t":             "<cstddef>",
	"printf":             "<cstdio>",
}

var cxxSuffixes = map[string]string{
	"bits/basic_string.h":   "<string>",
	"bits/stringfwd.h":      "<string>",
	"bits/stl_vector.h":     "<vector>",
	"bits/stl_map.h":        "<map>",
	"bits/unique_ptr.h":     "<memory>",
	"bits/shared_ptr.h":     "<memory>",
	"bits/stl_algo.h":       "<algorithm>",
	"bits/stl_pair.h":       "<utility>",
	"bits/std_function.h":   "<functional>",
	"bits/ios_base.h":       "<ios>",
	"bits/ostream_insert.h": "<ostream>",
}
