package refactor

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ritzau/deps-minimizer/pkg/buck"
	"github.com/ritzau/deps-minimizer/pkg/buildfile"
	"github.com/ritzau/deps-minimizer/pkg/config"
)

const libraryQuery = `{
  "//ios/app:app" : {
    "frameworks" : [
      "$SDKROOT/System/Library/Frameworks/CFNetwork.framework",
      "$SDKROOT/System/Library/Frameworks/Contacts.framework",
      "$SDKROOT/System/Library/Frameworks/CoreGraphics.framework",
      "$SDKROOT/System/Library/Frameworks/Foundation.framework",
      "$SDKROOT/System/Library/Frameworks/ImageIO.framework",
      "$SDKROOT/System/Library/Frameworks/UIKit.framework"
    ],
    "name" : "app"
  },
  "//ios/common/logging:logging" : {
    "frameworks" : [
      "$SDKROOT/System/Library/Frameworks/Foundation.framework"
    ],
    "module_name" : "ios_common_logging",
    "name" : "logging"
  },
  "//ios/common/utilities:utilities" : {
    "frameworks" : [
      "$SDKROOT/System/Library/Frameworks/Foundation.framework",
      "$SDKROOT/System/Library/Frameworks/UIKit.framework"
    ],
    "module_name" : "ios_common_utilities",
    "name" : "utilities"
  }
}`

const example1 = `import Foundation
import UIKit
import ios_common_utilities.Swift

public enum Example1Enum: Error {
  case first
  case second
}

open class Example1 {
  public init() {}

  public func process(_ utilities: Utilities, enum: Example2Enum) {
  }
}
`

const example2Header = `#import <Foundation/Foundation.h>
#import <ios_common_logging/ios_common_logging-Swift.h>

@class Example3;

@interface Example2: NSObject

@property (nonatomic, nullable) Example3 *example3Property;

- (instancetype)initializeWithLogger:(Logger *)logger;

@end
`

const example2Implementation = `#import "Example2.h"

#import <Foundation/Foundation.h>
#import <ios_common_status/ios_common_status.h>
#import "Example4Header.h"

@implementation Example2

- (instancetype)initializeWithLogger:(Logger *)logger { }

@end
`

const example4Implementation = `#import "Example4.h"

#import <Foundation/Foundation.h>
#import <ios_common_utilities/ios_common_utilities.h>
#import "Example2Header.h"

@implementation Example4
@end
`

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, rel))
	require.NoError(t, err)
	return string(data)
}

func newRefactorer(t *testing.T, root string, oracle buck.Oracle, dryRun bool) (*Refactorer, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	r, err := New(Options{
		Root:      root,
		Rules:     config.DefaultRules(),
		Oracle:    oracle,
		Formatter: buildfile.NopFormatter{},
		Workers:   2,
		DryRun:    dryRun,
		Out:       out,
	})
	require.NoError(t, err)
	return r, out
}
