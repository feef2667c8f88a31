package driver

// Anchors located in the template. Header includes go right before the
// trampoline include, table entries replace the empty line after the opener.
const (
	TrampolineInclude = "#include <map>"
	TableOpener       = "std::map<std::string, FnPtr> tests {"
)

// Exit statuses of the generated main.
const (
	ExitNoTestName  = 1
	ExitUnknownTest = 2
)

// DefaultTemplate is the driver source before any test is inserted.
const DefaultTemplate = `/*
 * Test driver generated by ctp. It is rewritten before every run.
 *
 * Usage: <executable> <test_name>
 * Every selected test function is registered below as { "name", name }.
 */

#include <map>
#include <string>
#include <iostream>

typedef void (*FnPtr)();

int main(int argc, char **argv) {
    std::map<std::string, FnPtr> tests {

    };

    if (argc <= 1) {
        std::cout << "No test function specified. Quitting" << std::endl;
        return 1;
    }

    std::map<std::string, FnPtr>::iterator it = tests.find(argv[1]);
    if (it == tests.end()) {
        std::cerr << "Unknown test function: " << argv[1] << std::endl;
        return 2;
    }

    it->second();
    return 0;
}
`
